// Package api is the typed gateway to the remote air-quality service.
// Every call classifies the transport outcome, extracts the structured
// error message the backend attaches to failures, and only decodes bodies
// that actually declare a JSON content type.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// GatewayError is a failed remote call with the most specific message the
// backend offered.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a gateway against baseURL. A nil logger disables
// logging; timeout <= 0 falls back to 45 seconds.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// call performs one JSON round trip. On a non-2xx status it extracts the
// backend's message/error field, falling back to a generic text when the
// body is absent or unparseable. On success it decodes into out only when
// the response declares a JSON content type; otherwise the body is
// discarded and the call succeeds as a bare marker.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		blob, err := json.Marshal(payload)
		if err != nil {
			return &GatewayError{Message: fmt.Sprintf("encode request payload: %v", err)}
		}
		body = bytes.NewReader(blob)
	}

	endpoint := c.baseURL + "/api" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &GatewayError{Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("gateway transport failure", "method", method, "path", path, "error", err)
		return &GatewayError{Message: fmt.Sprintf("request %s %s: %v", method, path, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := extractErrorMessage(resp.Body, resp.StatusCode)
		c.logger.Debug("gateway call failed", "method", method, "path", path, "status", resp.StatusCode, "message", message)
		return &GatewayError{Status: resp.StatusCode, Message: message}
	}

	if out == nil || !declaresJSON(resp.Header.Get("Content-Type")) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{Status: resp.StatusCode, Message: fmt.Sprintf("decode response from %s: %v", path, err)}
	}
	return nil
}

func extractErrorMessage(body io.Reader, status int) string {
	blob, _ := io.ReadAll(io.LimitReader(body, 64*1024))
	var parsed errorBody
	if json.Unmarshal(blob, &parsed) == nil {
		if msg := strings.TrimSpace(parsed.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(parsed.Error); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func declaresJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// SessionStatus hydrates the client session exactly once at startup.
func (c *Client) SessionStatus(ctx context.Context) (*SessionStatus, error) {
	var status SessionStatus
	if err := c.call(ctx, http.MethodGet, "/session_status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	payload := map[string]string{"username": username, "password": password}
	var resp authResponse
	if err := c.call(ctx, http.MethodPost, "/login", nil, payload, &resp); err != nil {
		return nil, err
	}
	return &AuthResult{Success: resp.Success, Message: resp.Message, User: resp.User}, nil
}

func (c *Client) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	payload := map[string]string{"username": username, "password": password}
	var resp authResponse
	if err := c.call(ctx, http.MethodPost, "/register", nil, payload, &resp); err != nil {
		return nil, err
	}
	return &AuthResult{Success: resp.Success, Message: resp.Message}, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/logout", nil, nil, nil)
}

// UpdateProfile submits age/conditions edits. The response carries only
// the fields the backend accepted; callers merge them, never replace the
// whole profile.
func (c *Client) UpdateProfile(ctx context.Context, age, conditions string) (*AuthResult, error) {
	payload := map[string]string{"age": age, "conditions": conditions}
	var resp authResponse
	if err := c.call(ctx, http.MethodPost, "/profile", nil, payload, &resp); err != nil {
		return nil, err
	}
	return &AuthResult{Success: resp.Success, Message: resp.Message, User: resp.User}, nil
}

// CurrentConditions fetches the latest live reading map. Keys are feature
// names as the backend understands them; callers filter against the
// session's capability list.
func (c *Client) CurrentConditions(ctx context.Context) (map[string]float64, error) {
	var resp conditionsResponse
	if err := c.call(ctx, http.MethodGet, "/fetch_current_data", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = map[string]float64{}
	}
	return resp.Data, nil
}

func (c *Client) Predict(ctx context.Context, features map[string]float64) (*PredictionResult, error) {
	if features == nil {
		features = map[string]float64{}
	}
	var result PredictionResult
	if err := c.call(ctx, http.MethodPost, "/predict", nil, features, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Forecast(ctx context.Context, hours int) (*ForecastResponse, error) {
	if hours <= 0 {
		return nil, &GatewayError{Message: "forecast hours must be a positive integer"}
	}
	var resp ForecastResponse
	if err := c.call(ctx, http.MethodPost, "/forecast_lstm", nil, map[string]int{"hours": hours}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) HistoricalSeries(ctx context.Context) ([]TimeSeriesPoint, error) {
	var points []TimeSeriesPoint
	if err := c.call(ctx, http.MethodGet, "/historical_data", nil, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// Analysis requests the date-ranged analytics bundle. Dates are
// YYYY-MM-DD; validation of presence happens at the flow level so no call
// is issued with a missing bound.
func (c *Client) Analysis(ctx context.Context, start, end string) (*EdaBundle, error) {
	query := url.Values{}
	query.Set("start", start)
	query.Set("end", end)
	var bundle EdaBundle
	if err := c.call(ctx, http.MethodGet, "/eda_data", query, nil, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// RoundedAQI is the display form of a raw AQI value.
func RoundedAQI(value float64) string {
	return strconv.Itoa(int(value + 0.5))
}
