package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"taf-timeline/internal/models"
	"taf-timeline/pkg/logger"
)

const (
	TimelineBaseURL = "https://timeline-api.getpebble.com/"
	pinsPath        = "v1/user/pins/"
	userTokenHeader = "X-User-Token"
)

var ErrNoToken = errors.New("timeline token unavailable")

// TokenProvider hands out the user token before each timeline request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

// TimelineClient talks to the public timeline API. Requests carry no timeout.
type TimelineClient struct {
	root       string
	tokens     TokenProvider
	httpClient HTTPClient
	limiter    *rate.Limiter
	l          *logger.Logger
}

// NewTimelineClient paces requests at rps per second; rps <= 0 disables pacing.
func NewTimelineClient(root string, tokens TokenProvider, rps float64, l *logger.Logger, httpClient HTTPClient) *TimelineClient {
	if root == "" {
		root = TimelineBaseURL
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &TimelineClient{
		root:       strings.TrimRight(root, "/") + "/",
		tokens:     tokens,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		l:          l,
	}
}

func (c *TimelineClient) PinURL(id string) string {
	return c.root + pinsPath + url.PathEscape(id)
}

func (c *TimelineClient) PutPin(ctx context.Context, pin models.Pin) error {
	body, err := json.Marshal(pin)
	if err != nil {
		return errors.Wrap(err, "failed to encode pin")
	}
	return c.do(ctx, http.MethodPut, pin.ID, body)
}

func (c *TimelineClient) DeletePin(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, id, nil)
}

func (c *TimelineClient) do(ctx context.Context, method, id string, body []byte) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get timeline token")
	}

	if err = c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limit wait canceled")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.PinURL(id), reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(userTokenHeader, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to do request")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	c.l.Debug("timeline response", map[string]any{
		"method": method,
		"id":     id,
		"status": resp.StatusCode,
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("timeline %s %s: HTTP %d: %s", method, id, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
