package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/meltforce/formcoach/internal/pose"
	"github.com/meltforce/formcoach/internal/workout"
	"golang.org/x/time/rate"
)

// frameReply mirrors server.FrameResult without importing the server package
// (which would pull in chi and the storage drivers).
type frameReply struct {
	Metrics workout.Metrics `json:"metrics"`
	Skipped string          `json:"skipped,omitempty"`
}

// Client replays frames against a running formcoach server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client that sends at most fps frames per second.
// A non-positive fps sends as fast as the server answers.
func NewClient(serverURL, apiKey string, fps float64) *Client {
	limit := rate.Inf
	burst := 1
	if fps > 0 {
		limit = rate.Limit(fps)
		burst = max(1, int(math.Ceil(fps/10)))
	}
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Replay starts a workout, streams every frame and ends the workout. The
// workout is ended even when sending fails part way.
func (c *Client) Replay(ctx context.Context, exerciseID string, frames []pose.Message, progress Progress) (Result, error) {
	if _, err := c.post(ctx, "/start_workout", map[string]string{"exercise": exerciseID}); err != nil {
		return Result{}, fmt.Errorf("starting workout: %w", err)
	}

	var res Result
	var sendErr error
	for i, msg := range frames {
		if err := c.limiter.Wait(ctx); err != nil {
			sendErr = err
			break
		}
		reply, err := c.sendFrame(ctx, msg)
		if err != nil {
			sendErr = fmt.Errorf("frame %d: %w", i, err)
			break
		}
		res.Last = reply.Metrics
		if reply.Skipped != "" {
			res.skip(reply.Skipped)
		} else {
			res.Applied++
		}
		reportProgress(progress, i+1)
	}

	// a cancelled ctx must not prevent closing the session
	endCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	body, err := c.post(endCtx, "/end_workout", nil)
	if err != nil {
		if sendErr != nil {
			return res, sendErr
		}
		return res, fmt.Errorf("ending workout: %w", err)
	}
	var ended struct {
		Summary workout.Summary `json:"summary"`
	}
	if err := json.Unmarshal(body, &ended); err != nil {
		return res, fmt.Errorf("decoding summary: %w", err)
	}
	res.Summary = ended.Summary
	return res, sendErr
}

// sendFrame POSTs one frame. Retries up to 3 times with exponential backoff
// on transport errors and 5xx responses.
func (c *Client) sendFrame(ctx context.Context, msg pose.Message) (frameReply, error) {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return frameReply{}, ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * 250 * time.Millisecond):
			}
		}

		body, err := c.post(ctx, "/api/v1/frames", msg)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && se.code < 500 {
				return frameReply{}, err
			}
			lastErr = err
			continue
		}
		var reply frameReply
		if err := json.Unmarshal(body, &reply); err != nil {
			return frameReply{}, fmt.Errorf("decoding frame result: %w", err)
		}
		return reply, nil
	}
	return frameReply{}, fmt.Errorf("after 3 attempts: %w", lastErr)
}

type statusError struct {
	path string
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.path, e.code, e.body)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{path: path, code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
