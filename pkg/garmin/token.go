package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// OAuth1Token is the intermediate credential returned by the preauthorized
// endpoint. It only lives long enough to sign the OAuth2 exchange call.
type OAuth1Token struct {
	Token       string
	TokenSecret string
	MFAToken    string
}

// OAuth2Token carries the bearer credential for data calls. Garmin returns
// more fields; everything beyond the access token is treated as opaque.
type OAuth2Token struct {
	AccessToken string `json:"access_token"`
}

// getOAuth1Token exchanges the SSO ticket for an OAuth1 token. The call is
// signed with consumer credentials only and replies form-encoded.
func (c *Client) getOAuth1Token(ctx context.Context, signer *Signer, ticket string) (*OAuth1Token, error) {
	reqURL := c.APIBase + "/oauth-service/oauth/preauthorized" +
		"?ticket=" + ticket +
		"&login-url=" + url.QueryEscape(c.SSOBase+"/embed") +
		"&accepts-mfa-tokens=true"

	authHeader, err := signer.Authorization(http.MethodGet, reqURL, nil, "", "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", authHeader)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: preauthorized returned %d: %s", ErrTokenExchange, res.StatusCode, snippet(body))
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse preauthorized response: %v", ErrTokenExchange, err)
	}
	token := &OAuth1Token{
		Token:       values.Get("oauth_token"),
		TokenSecret: values.Get("oauth_token_secret"),
		MFAToken:    values.Get("mfa_token"),
	}
	if token.Token == "" || token.TokenSecret == "" {
		return nil, fmt.Errorf("%w: preauthorized response missing oauth_token", ErrTokenExchange)
	}
	return token, nil
}

// exchangeOAuth2 trades the OAuth1 token for the OAuth2 bearer token. The
// call is signed with consumer credentials plus the OAuth1 token pair.
func (c *Client) exchangeOAuth2(ctx context.Context, signer *Signer, oauth1 *OAuth1Token) (*OAuth2Token, error) {
	reqURL := c.APIBase + "/oauth-service/oauth/exchange/user/2.0"

	authHeader, err := signer.Authorization(http.MethodPost, reqURL, nil, oauth1.Token, oauth1.TokenSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	body := ""
	if oauth1.MFAToken != "" {
		body = "mfa_token=" + url.QueryEscape(oauth1.MFAToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: exchange returned %d: %s", ErrTokenExchange, res.StatusCode, snippet(raw))
	}

	var token OAuth2Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("%w: decode exchange response: %v", ErrTokenExchange, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: exchange response missing access_token", ErrTokenExchange)
	}
	return &token, nil
}

// snippet truncates vendor error bodies before they land in error strings.
func snippet(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
