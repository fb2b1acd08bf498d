package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperr "kosgate/internal/errors"
)

// Client is the typed access layer over the kos backend's HTTP contract.
// It normalizes the backend's response envelope and maps HTTP failures onto
// the gateway error taxonomy; callers never see status codes.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type sessionKey struct{}

// WithSession attaches the tenant's session cookie (as received from the
// login flow) to the context. Every request forwards it verbatim; the
// gateway never mints credentials of its own.
func WithSession(ctx context.Context, cookie string) context.Context {
	return context.WithValue(ctx, sessionKey{}, cookie)
}

func sessionFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey{}).(string); ok {
		return v
	}
	return ""
}

// envelope is the backend's standard response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

// getJSON issues a GET and decodes the envelope's data into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

// postJSON issues a POST with a JSON body and decodes the envelope's data
// into out (out may be nil for operations with no payload of interest).
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(jsonBody), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie := sessionFromContext(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Respect caller cancellation: an aborted request is the caller's
		// decision, not a transport failure to report to the user.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperr.Wrap(apperr.KindNetwork, "could not reach the server", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return apperr.Wrap(apperr.KindAuth, "session expired, please log in again",
			fmt.Errorf("%s %s: status 401", method, path))
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return apperr.Wrap(apperr.KindNetwork,
			fmt.Sprintf("server error %d", resp.StatusCode),
			fmt.Errorf("%s %s: unexpected content type %q", method, path, ct))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperr.Wrap(apperr.KindNetwork, "could not read the server response", err)
	}

	if !env.Success || resp.StatusCode >= 400 {
		return c.mapFailure(resp.StatusCode, &env, method, path)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return apperr.Wrap(apperr.KindNetwork, "could not read the server response", err)
		}
	}

	return nil
}

// mapFailure translates an unsuccessful envelope into the error taxonomy.
// The backend message is kept as the user-facing text so business-rule
// rejections (double booking, already cancelled) surface verbatim.
func (c *Client) mapFailure(status int, env *envelope, method, path string) error {
	msg := env.Message
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	cause := fmt.Errorf("%s %s: status %d: %s", method, path, status, strings.Join(env.Errors, "; "))

	switch status {
	case http.StatusUnauthorized:
		return apperr.Wrap(apperr.KindAuth, msg, cause)
	case http.StatusConflict:
		return apperr.Wrap(apperr.KindConflict, msg, cause)
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusNotFound:
		return apperr.Wrap(apperr.KindValidation, msg, cause)
	case http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return apperr.Wrap(apperr.KindUpload, msg, cause)
	default:
		return apperr.Wrap(apperr.KindNetwork, msg, cause)
	}
}
