package garmin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

const (
	rangeShapeWeight = `{"dailyWeightSummaries":[
		{"allWeightMetrics":[{"calendarDate":"2024-01-01","weight":85000}]},
		{"allWeightMetrics":[{"calendarDate":"2024-01-02","weight":84800}]}
	]}`
	dateRangeShapeWeight = `{"dateWeightList":[
		{"calendarDate":"2024-01-01","weight":85000},
		{"calendarDate":"2024-01-02","weight":84800}
	]}`
)

func dataTestClient(server *httptest.Server) *Client {
	c := NewClient("user@example.com", "secret", 5*time.Second)
	c.APIBase = server.URL
	return c
}

func TestFetchWeightRangeEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/weight-service/weight/range/2024-01-01/2024-01-30", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at-123" {
			t.Errorf("Authorization = %q, want Bearer at-123", got)
		}
		w.Write([]byte(rangeShapeWeight))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	entries, err := dataTestClient(server).FetchWeight(context.Background(), "at-123", "2024-01-01", "2024-01-30")
	if err != nil {
		t.Fatalf("FetchWeight() error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}

func TestFetchWeightFallsBackToDateRange(t *testing.T) {
	var fallbackHit bool
	mux := http.NewServeMux()
	mux.HandleFunc("/weight-service/weight/range/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/weight-service/weight/dateRange", func(w http.ResponseWriter, r *http.Request) {
		fallbackHit = true
		if r.URL.Query().Get("startDate") != "2024-01-01" {
			t.Errorf("fallback startDate = %q", r.URL.Query().Get("startDate"))
		}
		w.Write([]byte(dateRangeShapeWeight))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	entries, err := dataTestClient(server).FetchWeight(context.Background(), "at-123", "2024-01-01", "2024-01-30")
	if err != nil {
		t.Fatalf("FetchWeight() error: %v", err)
	}
	if !fallbackHit {
		t.Error("fallback endpoint was never called")
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}

func TestFetchWeightBothEndpointsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := dataTestClient(server).FetchWeight(context.Background(), "at-123", "2024-01-01", "2024-01-30")
	if !errors.Is(err, ErrWeightFetch) {
		t.Errorf("FetchWeight() error = %v, want ErrWeightFetch", err)
	}
}

func TestDecodeSleepListShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"dailySleepDTOList wrapper", `{"dailySleepDTOList":[{"calendarDate":"2024-01-01"},{"calendarDate":"2024-01-02"}]}`, 2},
		{"sleepDTOList wrapper", `{"sleepDTOList":[{"calendarDate":"2024-01-01"}]}`, 1},
		{"bare array", `[{"calendarDate":"2024-01-01"}]`, 1},
		{"unknown wrapper degrades to empty", `{"somethingElse":[{"calendarDate":"2024-01-01"}]}`, 0},
		{"not json degrades to empty", `<html>error</html>`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(decodeSleepList([]byte(tt.body))); got != tt.want {
				t.Errorf("decodeSleepList() len = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMergeLatestSleepReplacesMatchingDate(t *testing.T) {
	list := []json.RawMessage{
		json.RawMessage(`{"calendarDate":"2024-01-01","sleepTimeSeconds":100}`),
		json.RawMessage(`{"calendarDate":"2024-01-02","sleepTimeSeconds":200}`),
	}
	latest := json.RawMessage(`{"calendarDate":"2024-01-02","sleepTimeSeconds":999}`)

	merged := mergeLatestSleep(list, latest)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if string(merged[1]) != string(latest) {
		t.Errorf("matching date entry was not replaced: %s", merged[1])
	}
}

func TestMergeLatestSleepAppendsNewDate(t *testing.T) {
	list := []json.RawMessage{
		json.RawMessage(`{"calendarDate":"2024-01-01"}`),
	}
	latest := json.RawMessage(`{"calendarDate":"2024-01-03"}`)

	merged := mergeLatestSleep(list, latest)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if sleepEntryDate(merged[1]) != "2024-01-03" {
		t.Errorf("appended entry date = %q, want 2024-01-03", sleepEntryDate(merged[1]))
	}
}

func TestMergeLatestSleepIgnoresDatelessEntry(t *testing.T) {
	list := []json.RawMessage{json.RawMessage(`{"calendarDate":"2024-01-01"}`)}
	merged := mergeLatestSleep(list, json.RawMessage(`{"foo":"bar"}`))
	if len(merged) != 1 {
		t.Errorf("len(merged) = %d, want 1", len(merged))
	}
}

func TestSleepEntryDateProbesNestedDTO(t *testing.T) {
	raw := json.RawMessage(`{"dailySleepDTO":{"calendarDate":"2024-02-10"}}`)
	if got := sleepEntryDate(raw); got != "2024-02-10" {
		t.Errorf("sleepEntryDate() = %q, want 2024-02-10", got)
	}
}

// Sleep fetching is best-effort end to end: total vendor failure still
// yields an empty result, not an error.
func TestFetchSleepToleratesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	entries, err := dataTestClient(server).FetchSleep(context.Background(), "at-123", "2024-01-01", "2024-01-30")
	if err != nil {
		t.Fatalf("FetchSleep() error: %v, want nil", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}

// A transport failure has no HTTP status; the log line must not invent one.
func TestFetchSleepTransportErrorLogsWithoutStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := dataTestClient(server)
	server.Close()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	entries, err := client.FetchSleep(context.Background(), "at-123", "2024-01-01", "2024-01-30")
	if err != nil {
		t.Fatalf("FetchSleep() error: %v, want nil", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
	if out := buf.String(); strings.Contains(out, "status 0") {
		t.Errorf("transport error log carries a fabricated status:\n%s", out)
	}
}

func TestFetchSleepMergesLatestIntoList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wellness-service/wellness/dailySleepData/2024-01-30", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"calendarDate":"2024-01-30","sleepTimeSeconds":28800}`))
	})
	mux.HandleFunc("/wellness-service/wellness/dailySleep", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dailySleepDTOList":[{"calendarDate":"2024-01-28"},{"calendarDate":"2024-01-29"}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	entries, err := dataTestClient(server).FetchSleep(context.Background(), "at-123", "2024-01-01", "2024-01-30")
	if err != nil {
		t.Fatalf("FetchSleep() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if sleepEntryDate(entries[2]) != "2024-01-30" {
		t.Errorf("merged latest entry date = %q, want 2024-01-30", sleepEntryDate(entries[2]))
	}
}
