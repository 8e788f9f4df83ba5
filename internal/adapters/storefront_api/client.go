package storefront_api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/contracts"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"strings"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	maxErrorBodyLen = 512
)

// Client - клиент REST API витрины (каталог, фасеты, отзывы, аналитика).
// Реализует ProductCatalogPort, FacetCatalogPort, ReviewStorePort и VisitRecorderPort.
type Client struct {
	baseURL    string // например, "http://storefront-api:8000/api"
	httpClient *http.Client
}

var (
	_ port.ProductCatalogPort = (*Client)(nil)
	_ port.FacetCatalogPort   = (*Client)(nil)
	_ port.ReviewStorePort    = (*Client)(nil)
	_ port.VisitRecorderPort  = (*Client)(nil)
)

// NewClient - конструктор. timeout <= 0 заменяется значением по умолчанию.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// doRequest - внутренний хелпер для выполнения запросов
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// call выполняет запрос, проверяет статус и, если задан schemaKey, форму ответа.
// Нарушение схемы оборачивает domain.ErrMalformedResponse.
func (c *Client) call(ctx context.Context, logger port.LoggerPort, method, path string, query url.Values, body interface{}, schemaKey string) ([]byte, error) {
	resp, err := c.doRequest(ctx, method, path, query, body)
	if err != nil {
		logger.Error("Failed to perform request to storefront API", err, port.Fields{"path": path})
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("Failed to read response body", err, nil)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: truncate(string(payload), maxErrorBodyLen)}
		logger.Error("Received non-2xx response from storefront API", err, port.Fields{"status_code": resp.StatusCode})
		return nil, err
	}

	if schemaKey != "" {
		if err := contracts.ValidateResponse(schemaKey, payload); err != nil {
			logger.Error("Storefront API response failed schema validation", err, port.Fields{"schema": schemaKey})
			return nil, fmt.Errorf("%s %s: %v: %w", method, path, err, domain.ErrMalformedResponse)
		}
	}
	return payload, nil
}

// StatusError - ответ с кодом вне диапазона 2xx.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storefront API %s %s returned status code %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func decode(payload []byte, v interface{}) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to decode response: %v: %w", err, domain.ErrMalformedResponse)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (c *Client) logger(ctx context.Context, method string) port.LoggerPort {
	return contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "StorefrontAPIClient",
		"method":    method,
	})
}
