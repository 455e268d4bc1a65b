package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultSSOBase     = "https://sso.garmin.com/sso"
	defaultAPIBase     = "https://connectapi.garmin.com"
	defaultConsumerURL = "https://thegarth.s3.amazonaws.com/oauth_consumer.json"

	// Garmin's SSO rejects unknown user agents; this mimics the Connect mobile app.
	userAgent = "com.garmin.android.apps.connectmobile"
)

// Client drives the full Garmin Connect pipeline: SSO login, OAuth1/OAuth2
// token exchange and data retrieval. A Client performs a fresh login on every
// Authenticate call; no session or token survives between runs.
type Client struct {
	Email    string
	Password string

	// Endpoint bases, overridable for tests against httptest servers.
	SSOBase     string
	APIBase     string
	ConsumerURL string

	HTTPClient *http.Client
}

func NewClient(email, password string, timeout time.Duration) *Client {
	return &Client{
		Email:       email,
		Password:    password,
		SSOBase:     defaultSSOBase,
		APIBase:     defaultAPIBase,
		ConsumerURL: defaultConsumerURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
			// The SSO flow inspects Set-Cookie headers and response bodies of
			// intermediate hops, so redirects are never followed.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// consumerCredentials is the shape of the public OAuth consumer JSON.
type consumerCredentials struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

func (c *Client) fetchConsumer(ctx context.Context) (*consumerCredentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ConsumerURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch oauth consumer credentials: %w", err)
	}
	defer res.Body.Close()

	var consumer consumerCredentials
	if err := json.NewDecoder(res.Body).Decode(&consumer); err != nil {
		return nil, fmt.Errorf("decode oauth consumer credentials: %w", err)
	}
	if consumer.ConsumerKey == "" || consumer.ConsumerSecret == "" {
		return nil, fmt.Errorf("oauth consumer credentials are incomplete")
	}
	return &consumer, nil
}

// Authenticate performs the complete login chain and returns the OAuth2
// bearer access token used for data calls within the same run.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	if c.Email == "" || c.Password == "" {
		return "", ErrMissingCredentials
	}

	consumer, err := c.fetchConsumer(ctx)
	if err != nil {
		return "", err
	}

	ticket, err := c.login(ctx)
	if err != nil {
		return "", err
	}

	signer := NewSigner(consumer.ConsumerKey, consumer.ConsumerSecret)

	oauth1, err := c.getOAuth1Token(ctx, signer, ticket)
	if err != nil {
		return "", err
	}

	oauth2Token, err := c.exchangeOAuth2(ctx, signer, oauth1)
	if err != nil {
		return "", err
	}
	return oauth2Token.AccessToken, nil
}
