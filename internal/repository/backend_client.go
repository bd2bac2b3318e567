package repository

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
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/pkg/config"
	"github.com/noah-isme/campus-events-api/pkg/middleware/requestid"
)

const maxErrorBody = 64 << 10

// UpstreamError is a non-2xx answer from the backend.
type UpstreamError struct {
	Op      string
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Message)
}

// TransportError means no usable answer was received: connection failure,
// timeout, cancellation or an undecodable body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Envelope is the backend response wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Token   string          `json:"token"`
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx so backend calls made
// on its behalf forward it.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token stored by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type upstreamObserver interface {
	ObserveUpstreamCall(operation string, status int, duration time.Duration)
}

// FormFile is a file part of a multipart request.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Call describes one backend request.
type Call struct {
	Op     string
	Method string
	Path   string
	Query  url.Values
	// JSON is encoded as the request body when set.
	JSON interface{}
	// Form and Files switch the body to multipart/form-data.
	Form  [][2]string
	Files []FormFile
}

// BackendClient talks to the events REST backend.
type BackendClient struct {
	baseURL string
	http    *http.Client
	metrics upstreamObserver
	logger  *zap.Logger
}

// NewBackendClient constructs a client for cfg.
func NewBackendClient(cfg config.BackendConfig, metrics upstreamObserver, logger *zap.Logger) *BackendClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BackendClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  logger,
	}
}

// WithHTTPClient returns a copy of the client that sends through client.
func (c *BackendClient) WithHTTPClient(client *http.Client) *BackendClient {
	clone := *c
	clone.http = client
	return &clone
}

// Do performs call and decodes the envelope data into out when out is non-nil.
func (c *BackendClient) Do(ctx context.Context, call Call, out interface{}) (*Envelope, error) {
	req, err := c.newRequest(ctx, call)
	if err != nil {
		return nil, &TransportError{Op: call.Op, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(call.Op, 0, duration)
		c.logger.Warn("backend call failed", zap.String("op", call.Op), zap.String("path", call.Path), zap.Error(err))
		return nil, &TransportError{Op: call.Op, Err: err}
	}
	defer resp.Body.Close()
	c.observe(call.Op, resp.StatusCode, duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: call.Op, Err: fmt.Errorf("read body: %w", err)}
	}
	// A response that arrives after the caller left is dropped.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &TransportError{Op: call.Op, Err: ctxErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("backend rejected call",
			zap.String("op", call.Op),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", duration),
		)
		return nil, &UpstreamError{Op: call.Op, Status: resp.StatusCode, Message: errorMessage(body)}
	}

	c.logger.Debug("backend call",
		zap.String("op", call.Op),
		zap.String("method", call.Method),
		zap.String("path", call.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	envelope := &Envelope{}
	if len(bytes.TrimSpace(body)) == 0 {
		return envelope, nil
	}
	if err := json.Unmarshal(body, envelope); err != nil {
		// Some endpoints answer with a bare array.
		envelope.Data = body
	}
	if out != nil && hasData(envelope.Data) {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return nil, &TransportError{Op: call.Op, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return envelope, nil
}

func (c *BackendClient) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	target := c.baseURL + call.Path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case len(call.Files) > 0 || len(call.Form) > 0:
		buf, ct, err := encodeMultipart(call.Form, call.Files)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case call.JSON != nil:
		payload, err := json.Marshal(call.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}
	return req, nil
}

func encodeMultipart(fields [][2]string, files []FormFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field[0], err)
		}
	}
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(file.Field), escapeQuotes(file.Filename)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", file.Field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func errorMessage(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return ""
}

func hasData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func (c *BackendClient) observe(op string, status int, duration time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveUpstreamCall(op, status, duration)
	}
}

// Ping checks that the backend answers at all. Any HTTP status counts as
// reachable except 5xx.
func (c *BackendClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events/published", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.New("backend returned " + resp.Status)
	}
	return nil
}
