package garmin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// The SSO login is a small state machine driven over three HTTP calls:
//
//	Init -> EmbedFetched -> SigninFetched -> Authenticated | Failed
//
// Cookies accumulate across the steps. The cookie string is passed into and
// returned from each step as a plain value, never mutated in place, so each
// transition is a pure function of (state, response).

var (
	csrfRe         = regexp.MustCompile(`name="_csrf"\s+value="([^"]+)"`)
	titleRe        = regexp.MustCompile(`<title>(.+?)</title>`)
	ticketWidgetRe = regexp.MustCompile(`embed\?ticket=([^"]+)"`)
	ticketLooseRe  = regexp.MustCompile(`ticket=([^"'\\&\s]+)`)
)

const loginSuccessTitle = "Success"

func (c *Client) embedURL() string {
	params := url.Values{
		"id":          {"gauth-widget"},
		"embedWidget": {"true"},
		"gauthHost":   {c.SSOBase},
	}
	return c.SSOBase + "/embed?" + params.Encode()
}

func (c *Client) signinURL() string {
	embed := c.SSOBase + "/embed"
	params := url.Values{
		"id":                              {"gauth-widget"},
		"embedWidget":                     {"true"},
		"gauthHost":                       {embed},
		"service":                         {embed},
		"source":                          {embed},
		"redirectAfterAccountLoginUrl":    {embed},
		"redirectAfterAccountCreationUrl": {embed},
	}
	return c.SSOBase + "/signin?" + params.Encode()
}

// cookiesFromResponse collects the name=value pairs of every Set-Cookie
// header on a response.
func cookiesFromResponse(res *http.Response) string {
	var pairs []string
	for _, raw := range res.Header.Values("Set-Cookie") {
		if pair := strings.TrimSpace(strings.SplitN(raw, ";", 2)[0]); pair != "" {
			pairs = append(pairs, pair)
		}
	}
	return strings.Join(pairs, "; ")
}

// mergeCookies appends fresh cookie pairs to the accumulated string. Pairs
// are only ever added, never dropped.
func mergeCookies(existing, fresh string) string {
	if fresh == "" {
		return existing
	}
	if existing == "" {
		return fresh
	}
	return existing + "; " + fresh
}

func (c *Client) ssoRequest(ctx context.Context, method, rawURL, cookies, referer string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if cookies != "" {
		req.Header.Set("Cookie", cookies)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c.HTTPClient.Do(req)
}

// login runs the SSO state machine and returns the short-lived ticket. Any
// step failing aborts the whole run; there is no retry within an invocation.
func (c *Client) login(ctx context.Context) (string, error) {
	cookies := ""

	// Init -> EmbedFetched: prime the session cookies.
	embedRes, err := c.ssoRequest(ctx, http.MethodGet, c.embedURL(), "", "", nil)
	if err != nil {
		return "", fmt.Errorf("sso embed: %w", err)
	}
	embedRes.Body.Close()
	cookies = mergeCookies(cookies, cookiesFromResponse(embedRes))

	// EmbedFetched -> SigninFetched: fetch the signin form, scrape the csrf token.
	signinRes, err := c.ssoRequest(ctx, http.MethodGet, c.signinURL(), cookies, c.SSOBase+"/embed", nil)
	if err != nil {
		return "", fmt.Errorf("sso signin page: %w", err)
	}
	signinBody, err := io.ReadAll(signinRes.Body)
	signinRes.Body.Close()
	if err != nil {
		return "", fmt.Errorf("sso signin page: %w", err)
	}
	cookies = mergeCookies(cookies, cookiesFromResponse(signinRes))
	csrf, err := extractCsrf(string(signinBody))
	if err != nil {
		return "", err
	}

	// SigninFetched -> Authenticated | Failed: post the credentials.
	form := url.Values{
		"username": {c.Email},
		"password": {c.Password},
		"embed":    {"true"},
		"_csrf":    {csrf},
	}
	loginRes, err := c.ssoRequest(ctx, http.MethodPost, c.signinURL(), cookies, c.signinURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("sso login: %w", err)
	}
	loginBody, err := io.ReadAll(loginRes.Body)
	loginRes.Body.Close()
	if err != nil {
		return "", fmt.Errorf("sso login: %w", err)
	}

	title := extractTitle(string(loginBody))
	switch {
	case strings.Contains(title, "MFA"):
		return "", ErrUnsupportedMFA
	case title != loginSuccessTitle:
		return "", fmt.Errorf("%w: title %q", ErrLoginRejected, title)
	}

	return extractTicket(string(loginBody))
}

func extractCsrf(body string) (string, error) {
	m := csrfRe.FindStringSubmatch(body)
	if m == nil {
		return "", ErrCsrfMissing
	}
	return m[1], nil
}

func extractTitle(body string) string {
	m := titleRe.FindStringSubmatch(body)
	if m == nil {
		return "unknown"
	}
	return m[1]
}

// extractTicket prefers the ticket embedded in the widget redirect URL and
// falls back to any ticket= occurrence in the body.
func extractTicket(body string) (string, error) {
	if m := ticketWidgetRe.FindStringSubmatch(body); m != nil {
		return m[1], nil
	}
	if m := ticketLooseRe.FindStringSubmatch(body); m != nil {
		return m[1], nil
	}
	return "", ErrTicketExtraction
}
