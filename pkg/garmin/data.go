package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// dataClient wraps the pipeline's HTTP client with the bearer token so every
// data call carries the Authorization header and the configured timeout.
func (c *Client) dataClient(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
}

func (c *Client) getJSON(ctx context.Context, client *http.Client, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, body, nil
}

// weightRangeResponse covers both weight payload shapes Garmin serves: the
// current range endpoint nests metrics under daily summaries, the older
// dateRange endpoint returns a flat list.
type weightRangeResponse struct {
	DailyWeightSummaries []struct {
		AllWeightMetrics []json.RawMessage `json:"allWeightMetrics"`
	} `json:"dailyWeightSummaries"`
	DateWeightList []json.RawMessage `json:"dateWeightList"`
}

// flattenWeightPayload extracts the raw metric entries from either shape.
func flattenWeightPayload(body []byte) ([]json.RawMessage, error) {
	var payload weightRangeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if len(payload.DailyWeightSummaries) > 0 {
		var entries []json.RawMessage
		for _, summary := range payload.DailyWeightSummaries {
			entries = append(entries, summary.AllWeightMetrics...)
		}
		return entries, nil
	}
	return payload.DateWeightList, nil
}

// FetchWeight retrieves raw weight entries for the date range. The range
// endpoint is tried first; on a non-success response the older dateRange
// endpoint is used with the same window. Both failing is fatal to the run.
func (c *Client) FetchWeight(ctx context.Context, accessToken, startDate, endDate string) ([]json.RawMessage, error) {
	client := c.dataClient(ctx, accessToken)

	rangeURL := c.APIBase + "/weight-service/weight/range/" + startDate + "/" + endDate + "?includeAll=true"
	status, body, err := c.getJSON(ctx, client, rangeURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeightFetch, err)
	}
	if status != http.StatusOK {
		log.Printf("[Garmin] weight range endpoint returned %d, trying dateRange fallback", status)
		fallbackURL := c.APIBase + "/weight-service/weight/dateRange?startDate=" + startDate + "&endDate=" + endDate
		status, body, err = c.getJSON(ctx, client, fallbackURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWeightFetch, err)
		}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrWeightFetch, status, snippet(body))
	}

	entries, err := flattenWeightPayload(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode weight payload: %v", ErrWeightFetch, err)
	}
	return entries, nil
}

// sleepListEnvelope names the known wrappers around the sleep list. Garmin
// has shipped several; an unrecognized shape degrades to an empty list.
type sleepListEnvelope struct {
	DailySleepDTOList []json.RawMessage `json:"dailySleepDTOList"`
	SleepDTOList      []json.RawMessage `json:"sleepDTOList"`
}

func decodeSleepList(body []byte) []json.RawMessage {
	// Bare top-level array is one of the known shapes.
	var bare []json.RawMessage
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare
	}
	var envelope sleepListEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Printf("[Garmin] unrecognized sleep list payload, treating as empty: %v", err)
		return nil
	}
	switch {
	case envelope.DailySleepDTOList != nil:
		return envelope.DailySleepDTOList
	case envelope.SleepDTOList != nil:
		return envelope.SleepDTOList
	default:
		log.Printf("[Garmin] sleep list payload has no known entry key, treating as empty: %s", snippet(body))
		return nil
	}
}

// sleepEntryDate probes the calendar date of a raw sleep entry, looking at
// the top level first and then inside the dailySleepDTO wrapper.
func sleepEntryDate(raw json.RawMessage) string {
	var probe struct {
		CalendarDate  string `json:"calendarDate"`
		DailySleepDTO *struct {
			CalendarDate string `json:"calendarDate"`
		} `json:"dailySleepDTO"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	if probe.CalendarDate != "" {
		return probe.CalendarDate
	}
	if probe.DailySleepDTO != nil {
		return probe.DailySleepDTO.CalendarDate
	}
	return ""
}

// mergeLatestSleep folds the single-day entry into the list: same date
// replaces in place (the single-day endpoint is often more current for
// "today"), a new date is appended.
func mergeLatestSleep(list []json.RawMessage, latest json.RawMessage) []json.RawMessage {
	date := sleepEntryDate(latest)
	if date == "" {
		return list
	}
	for i, entry := range list {
		if sleepEntryDate(entry) == date {
			list[i] = latest
			return list
		}
	}
	return append(list, latest)
}

// FetchSleep retrieves raw sleep entries for the date range. The latest-day
// summary and the range list are independent reads and fetched concurrently;
// either call failing is logged and tolerated. Sleep is best-effort
// throughout, so this never fails the run on vendor errors.
func (c *Client) FetchSleep(ctx context.Context, accessToken, startDate, endDate string) ([]json.RawMessage, error) {
	client := c.dataClient(ctx, accessToken)

	var (
		wg     sync.WaitGroup
		latest json.RawMessage
		list   []json.RawMessage
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		url := c.APIBase + "/wellness-service/wellness/dailySleepData/" + endDate
		status, body, err := c.getJSON(ctx, client, url)
		if err != nil {
			log.Printf("[Garmin] latest sleep fetch failed: %v", err)
			return
		}
		if status != http.StatusOK {
			log.Printf("[Garmin] latest sleep fetch returned status %d", status)
			return
		}
		latest = body
	}()
	go func() {
		defer wg.Done()
		url := c.APIBase + "/wellness-service/wellness/dailySleep?startDate=" + startDate + "&endDate=" + endDate
		status, body, err := c.getJSON(ctx, client, url)
		if err != nil {
			log.Printf("[Garmin] sleep list fetch failed: %v", err)
			return
		}
		if status != http.StatusOK {
			log.Printf("[Garmin] sleep list fetch returned status %d", status)
			return
		}
		list = decodeSleepList(body)
	}()
	wg.Wait()

	if latest != nil {
		list = mergeLatestSleep(list, latest)
	}
	return list, nil
}
