// Package session is a client for the blog API that keeps an access token fresh.
//
// A Coordinator attaches the cached access token to every request. When the server answers
// that the token has expired, the first caller refreshes it and every concurrent caller waits
// for that one refresh, then each replays its own request exactly once.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ExpiredCode is the error code the API puts in the body of a 401 caused by an expired access token.
const ExpiredCode = "credential_expired"

var (
	ErrSessionEnded  = errors.New("session ended")
	ErrNotReplayable = errors.New("request body can not be replayed")
)

// Refresher obtains a new access token, rotating the refresh credential as a side effect.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

type Coordinator struct {
	client    *http.Client
	refresher Refresher
	logger    *slog.Logger
	group     singleflight.Group

	mu          sync.RWMutex
	accessToken string
	ended       bool
	endedCh     chan struct{}
}

func New(client *http.Client, refresher Refresher, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		client:    client,
		refresher: refresher,
		logger:    logger,
		endedCh:   make(chan struct{}),
	}
}

func (c *Coordinator) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// SetAccessToken stores the token from a sign-in. A non-empty token starts a new session
// if the previous one has ended.
func (c *Coordinator) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accessToken = token
	if token != "" && c.ended {
		c.ended = false
		c.endedCh = make(chan struct{})
	}
}

// SessionEnded is closed when a refresh fails and the user has to sign in again.
func (c *Coordinator) SessionEnded() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endedCh
}

func (c *Coordinator) endSession(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accessToken = ""
	if !c.ended {
		c.ended = true
		close(c.endedCh)
		c.logger.Warn("session ended", "error", cause)
	}
}

func (c *Coordinator) Do(req *http.Request) (*http.Response, error) {
	token := c.AccessToken()

	resp, err := c.send(req, token, false)
	if err != nil {
		return nil, err
	}

	if !isExpired(resp) {
		return resp, nil
	}
	resp.Body.Close()

	fresh, err := c.refresh(req.Context(), token)
	if err != nil {
		return nil, err
	}

	return c.send(req, fresh, true)
}

func (c *Coordinator) send(req *http.Request, token string, replay bool) (*http.Response, error) {
	r := req.Clone(req.Context())

	if replay && req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, ErrNotReplayable
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotReplayable, err)
		}
		r.Body = body
	}

	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	return c.client.Do(r)
}

// refresh returns a token newer than stale, starting a refresh only if none is in flight
// and nobody has already replaced stale.
func (c *Coordinator) refresh(ctx context.Context, stale string) (string, error) {
	ch := c.group.DoChan("refresh", func() (interface{}, error) {
		c.mu.RLock()
		current, ended := c.accessToken, c.ended
		c.mu.RUnlock()

		if ended {
			return "", ErrSessionEnded
		}
		if current != "" && current != stale {
			return current, nil
		}

		// the refresh outlives any single caller
		token, err := c.refresher.Refresh(context.WithoutCancel(ctx))
		if err != nil {
			c.endSession(err)
			return "", fmt.Errorf("%w: %w", ErrSessionEnded, err)
		}

		c.SetAccessToken(token)
		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func isExpired(resp *http.Response) bool {
	if resp.StatusCode != http.StatusUnauthorized {
		return false
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return false
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}

	return payload.Code == ExpiredCode
}
