package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/techg-platform/techg-client/internal/model"
	"github.com/techg-platform/techg-client/internal/observability"
)

// TokenSource supplies the bearer credential attached to every request and
// is cleared when the backend rejects it.
type TokenSource interface {
	Token() string
	Clear()
}

// Error is an API failure classified by HTTP status. The message is the
// backend's verbatim error text when one was provided.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: request failed (status %d)", e.Status)
}

// IsStatus reports whether err is an API error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// Client is the single configured HTTP client the page controllers share.
// There is no retry or backoff: every failure is surfaced to the caller.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	logger         zerolog.Logger
	onUnauthorized func()
}

// NewClient constructs the request client.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger.With().Str("component", "api_client").Logger(),
	}
}

// OnUnauthorized registers the hook invoked after a 401 clears the stored
// credential. The shell maps it to a redirect back to login.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Get issues a GET request and decodes the envelope payload into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, payload, "application/json", out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, payload, "application/json", out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", out)
}

// Upload posts a file as multipart form data. The part's content type is
// sniffed from the payload rather than trusted from the file name.
func (c *Client) Upload(ctx context.Context, path, field, filename string, file io.Reader, out interface{}) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload payload: %w", err)
	}

	detected := mimetype.Detect(data)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", detected.String())

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create multipart payload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write multipart payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart payload: %w", err)
	}

	return c.do(ctx, http.MethodPost, path, &buf, writer.FormDataContentType(), out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.APIRequests().WithLabelValues(method, "transport_error").Inc()
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request transport failure")
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	observability.APIRequests().WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Clear()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	var envelope model.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if resp.StatusCode >= 400 {
			return &Error{Status: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		status := resp.StatusCode
		if status < 400 {
			status = http.StatusBadRequest
		}
		return &Error{Status: status, Message: envelope.Message}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode response payload: %w", err)
		}
	}

	return nil
}

func encodeBody(body interface{}) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request payload: %w", err)
	}
	return bytes.NewReader(payload), nil
}
