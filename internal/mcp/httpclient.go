package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/formcoach/internal/storage"
	"github.com/meltforce/formcoach/internal/workout"
)

// HTTPClient implements Backend by calling the FormCoach REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the tracker lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Backend.
var _ Backend = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty when the server does not require one.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{path: path, code: resp.StatusCode, msg: apiError(respBody)}
	}

	return respBody, nil
}

// statusError is a non-200 reply from the server.
type statusError struct {
	path string
	code int
	msg  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.path, e.code, e.msg)
}

// apiError extracts the message of an {"error": ...} body, falling back to
// the raw body.
func apiError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func (c *HTTPClient) StartWorkout(ctx context.Context, exercise string) (workout.StartResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/start_workout", nil, map[string]string{"exercise": exercise})
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusBadRequest {
		return workout.StartResult{}, fmt.Errorf("%w: %s", workout.ErrInvalidExercise, se.msg)
	}
	if err != nil {
		return workout.StartResult{}, err
	}

	var res workout.StartResult
	if err := json.Unmarshal(body, &res); err != nil {
		return workout.StartResult{}, fmt.Errorf("httpclient: decode start result: %w", err)
	}
	return res, nil
}

func (c *HTTPClient) EndWorkout(ctx context.Context) (workout.Summary, error) {
	body, err := c.do(ctx, http.MethodPost, "/end_workout", nil, nil)
	if err != nil {
		return workout.Summary{}, err
	}

	var res struct {
		Summary workout.Summary `json:"summary"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return workout.Summary{}, fmt.Errorf("httpclient: decode end result: %w", err)
	}
	return res.Summary, nil
}

func (c *HTTPClient) WorkoutStatus(ctx context.Context) (workout.Status, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/workout", nil, nil)
	if err != nil {
		return workout.Status{}, err
	}

	var st workout.Status
	if err := json.Unmarshal(body, &st); err != nil {
		return workout.Status{}, fmt.Errorf("httpclient: decode workout status: %w", err)
	}
	return st, nil
}

func (c *HTTPClient) RecentSessions(ctx context.Context, limit int) ([]storage.SessionRecord, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.do(ctx, http.MethodGet, "/api/v1/sessions", params, nil)
	if err != nil {
		return nil, err
	}

	var sessions []storage.SessionRecord
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return sessions, nil
}
