// Package client — REST-клиент поискового движка (OpenSearch-совместимого API).
//
// Клиент покрывает операции, которые используют шаги бенчмарка:
// создание/удаление/refresh индекса, bulk-загрузку и k-NN поиск.
// Retry и пересоединение клиент не выполняет: ошибка запроса
// возвращается вызывающему шагу как есть.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shaiso/Perftool/internal/bulk"
)

const (
	// Значения по умолчанию.
	defaultURL        = "http://localhost:9200"
	defaultTimeout    = 60 * time.Second
	maxErrorBody      = 1 << 20 // 1 MB текста ошибки
	contentTypeJSON   = "application/json"
	contentTypeNDJSON = "application/x-ndjson"
)

// Ошибки клиента.
var (
	// ErrRequest — запрос не удалось выполнить (сеть, DNS, таймаут).
	ErrRequest = errors.New("engine request failed")

	// ErrBulkItems — bulk-запрос выполнен, но часть операций завершилась ошибкой.
	ErrBulkItems = errors.New("bulk request has failed items")
)

// HTTPError — ответ движка со статусом >= 400.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error реализует интерфейс error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, e.Status, e.Body)
}

// IsHTTPError проверяет, является ли ошибка HTTP ошибкой с указанным статусом.
func IsHTTPError(err error, statusCode int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == statusCode
}

// Config — настройки клиента.
type Config struct {
	// URL — базовый адрес движка.
	URL string

	// Username, Password — basic auth (опционально).
	Username string
	Password string

	// Timeout — таймаут одного запроса (default: 60s).
	Timeout time.Duration

	// HTTPClient — готовый клиент (опционально, для тестов).
	HTTPClient *http.Client
}

// ConfigFromEnv читает ENGINE_URL, ENGINE_USER, ENGINE_PASSWORD.
func ConfigFromEnv() Config {
	cfg := Config{
		URL:      os.Getenv("ENGINE_URL"),
		Username: os.Getenv("ENGINE_USER"),
		Password: os.Getenv("ENGINE_PASSWORD"),
	}
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	return cfg
}

// Client — клиент движка.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// New создаёт новый Client.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.URL, "/")
	if baseURL == "" {
		baseURL = defaultURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  baseURL,
		username: cfg.Username,
		password: cfg.Password,
		http:     httpClient,
	}
}

// BulkResult — итог bulk-запроса.
type BulkResult struct {
	// Took — время обработки на стороне движка, мс.
	Took int `json:"took"`

	// Items — количество выполненных операций.
	Items int `json:"-"`
}

// SearchResult — итог k-NN поиска.
type SearchResult struct {
	// Took — время поиска на стороне движка, мс.
	Took int

	// IDs — _id найденных документов в порядке ранжирования.
	IDs []string
}

// CreateIndex создаёт индекс. body — настройки и mappings (может быть nil).
func (c *Client) CreateIndex(ctx context.Context, index string, body map[string]any) (bool, error) {
	var resp struct {
		Acknowledged bool `json:"acknowledged"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/"+url.PathEscape(index), body, &resp); err != nil {
		return false, fmt.Errorf("create index %s: %w", index, err)
	}
	return resp.Acknowledged, nil
}

// DeleteIndex удаляет индекс. Отсутствующий индекс — не ошибка (возвращает false).
func (c *Client) DeleteIndex(ctx context.Context, index string) (bool, error) {
	var resp struct {
		Acknowledged bool `json:"acknowledged"`
	}
	err := c.doJSON(ctx, http.MethodDelete, "/"+url.PathEscape(index), nil, &resp)
	if IsHTTPError(err, http.StatusNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete index %s: %w", index, err)
	}
	return resp.Acknowledged, nil
}

// Refresh делает индекс доступным для поиска и возвращает число успешных шардов.
func (c *Client) Refresh(ctx context.Context, index string) (int, error) {
	var resp struct {
		Shards struct {
			Successful int `json:"successful"`
		} `json:"_shards"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_refresh", nil, &resp); err != nil {
		return 0, fmt.Errorf("refresh index %s: %w", index, err)
	}
	return resp.Shards.Successful, nil
}

// Bulk отправляет batch (чередование action/payload) в _bulk.
func (c *Client) Bulk(ctx context.Context, batch []map[string]any) (*BulkResult, error) {
	var body bytes.Buffer
	if err := bulk.EncodeNDJSON(&body, batch); err != nil {
		return nil, fmt.Errorf("encode bulk body: %w", err)
	}

	var resp struct {
		Took   int                 `json:"took"`
		Errors bool                `json:"errors"`
		Items  []map[string]bulkOp `json:"items"`
	}
	if err := c.do(ctx, http.MethodPost, "/_bulk", &body, contentTypeNDJSON, &resp); err != nil {
		return nil, fmt.Errorf("bulk: %w", err)
	}

	if resp.Errors {
		return nil, fmt.Errorf("%w: %s", ErrBulkItems, firstItemError(resp.Items))
	}

	return &BulkResult{Took: resp.Took, Items: len(resp.Items)}, nil
}

// Search выполняет k-NN запрос по полю field.
func (c *Client) Search(ctx context.Context, index, field string, vector []float32, k int) (*SearchResult, error) {
	query := map[string]any{
		"size":    k,
		"_source": false,
		"query": map[string]any{
			"knn": map[string]any{
				field: map[string]any{
					"vector": vector,
					"k":      k,
				},
			},
		},
	}

	var resp struct {
		Took int `json:"took"`
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_search", query, &resp); err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}

	ids := make([]string, len(resp.Hits.Hits))
	for i, hit := range resp.Hits.Hits {
		ids[i] = hit.ID
	}
	return &SearchResult{Took: resp.Took, IDs: ids}, nil
}

// bulkOp — результат одной операции bulk-ответа. Из item декодируются
// только поля, нужные для итога и текста ошибки.
type bulkOp struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// doJSON сериализует body (если не nil) в JSON и выполняет запрос.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("serialize body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	return c.do(ctx, method, path, reader, contentTypeJSON, out)
}

// do выполняет запрос и парсит JSON ответа в out.
//
// Успешный ответ декодируется потоком без ограничения размера: ответ
// _bulk растёт вместе с bulk_size. Тело ответа с ошибкой читается не
// более чем на maxErrorBody.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(respBody),
		}
	}

	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// firstItemError возвращает причину первой неуспешной bulk-операции.
func firstItemError(items []map[string]bulkOp) string {
	for _, item := range items {
		for _, op := range item {
			if op.Error != nil {
				return fmt.Sprintf("_id %s: %s: %s", op.ID, op.Error.Type, op.Error.Reason)
			}
		}
	}
	return "unknown item error"
}
