package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
)

// HTTPRefresher calls the refresh endpoint. The refresh cookie lives in the client's jar,
// which also picks up the rotated cookie from the response.
type HTTPRefresher struct {
	client *http.Client
	url    string
}

func NewHTTPRefresher(client *http.Client, url string) *HTTPRefresher {
	return &HTTPRefresher{client: client, url: url}
}

type refreshResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (h *HTTPRefresher) Refresh(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, nil)
	if err != nil {
		return "", err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || body.Token == "" {
		return "", fmt.Errorf("refresh rejected with status %d: %s", resp.StatusCode, body.Message)
	}

	return body.Token, nil
}

// NewClient builds a cookie-aware http.Client and a Coordinator that refreshes against
// baseURL's refresh endpoint.
func NewClient(baseURL string, opts ...Option) (*Coordinator, *http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, nil, err
	}

	client := &http.Client{Jar: jar}
	o := options{refreshPath: "/v1/auth/refresh-token"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = defaultLogger()
	}

	refresher := NewHTTPRefresher(client, strings.TrimSuffix(baseURL, "/")+o.refreshPath)
	return New(client, refresher, o.logger), client, nil
}
