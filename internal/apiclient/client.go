// Package apiclient is a typed client for the content API, used by the site.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 10 * time.Second

// ErrUnauthorized is returned when the API answers 401. The token store is
// cleared before it is returned.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer of the API.
type APIError struct {
	Message string
	Code    int
	Details map[string]interface{}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// FieldErrors returns the per-field validation messages of a 422 answer.
func (e *APIError) FieldErrors() map[string]string {
	out := map[string]string{}
	if fields, ok := e.Details["errors"].(map[string]interface{}); ok {
		for k, v := range fields {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// TokenStore holds the bearer token sent with every request.
type TokenStore interface {
	Token() string
	SetToken(token string)
	Clear()
}

// MemoryStore is a TokenStore kept in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns a store holding token.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *MemoryStore) Clear() {
	s.SetToken("")
}

// Client talks to the content API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// New creates a client for the API at baseURL. A nil store means anonymous requests.
func New(baseURL string, tokens TokenStore) *Client {
	if tokens == nil {
		tokens = NewMemoryStore("")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
	}
}

// WithToken returns a client sharing the transport but sending token.
func (c *Client) WithToken(token string) *Client {
	return &Client{baseURL: c.baseURL, http: c.http, tokens: NewMemoryStore(token)}
}

// Tokens returns the client's token store.
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// Get performs a GET and decodes the answer into T.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Post sends body as JSON and decodes the answer into T.
func Post[T any](ctx context.Context, c *Client, path string, body interface{}) (T, error) {
	var out T
	err := c.do(ctx, http.MethodPost, path, body, &out)
	return out, err
}

// Put sends body as JSON and decodes the answer into T.
func Put[T any](ctx context.Context, c *Client, path string, body interface{}) (T, error) {
	var out T
	err := c.do(ctx, http.MethodPut, path, body, &out)
	return out, err
}

// Patch sends body as JSON and decodes the answer into T.
func Patch[T any](ctx context.Context, c *Client, path string, body interface{}) (T, error) {
	var out T
	err := c.do(ctx, http.MethodPatch, path, body, &out)
	return out, err
}

// Delete performs a DELETE. Empty answers leave T at its zero value.
func Delete[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.do(ctx, http.MethodDelete, path, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if body == nil {
		return c.send(ctx, method, path, nil, "", out)
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.send(ctx, method, path, bytes.NewReader(buf), "application/json", out)
}

// send performs the request with an already encoded body.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("API request failed")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Clear()
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, data)
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Str("detail", apiErr.Message).Msg("API error")
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func newAPIError(code int, data []byte) *APIError {
	apiErr := &APIError{Code: code}
	if err := json.Unmarshal(data, &apiErr.Details); err == nil {
		if detail, ok := apiErr.Details["detail"].(string); ok {
			apiErr.Message = detail
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(code)
	}
	if apiErr.Message == "" {
		apiErr.Message = "Error desconocido"
	}
	return apiErr
}
