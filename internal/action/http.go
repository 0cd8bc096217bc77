package action

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/shaiso/Flagship/internal/schema"
)

const (
	// NameHTTP — имя HTTP action.
	NameHTTP = "http"

	// Значения по умолчанию.
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// httpConfig — аргументы HTTP action после проверки схемой.
type httpConfig struct {
	URL             string            `mapstructure:"url"`
	Method          string            `mapstructure:"method"`
	Headers         map[string]string `mapstructure:"headers"`
	Body            any               `mapstructure:"body"`
	FollowRedirects bool              `mapstructure:"follow_redirects"`
	ValidateSSL     bool              `mapstructure:"validate_ssl"`
	TimeoutSec      int               `mapstructure:"timeout_sec"`
	FailOnStatus    bool              `mapstructure:"fail_on_status"`
}

// NewHTTP создаёт HTTP action.
//
// Primary input — url. Аргументы:
//
//	{
//	    "method": "POST",
//	    "headers": {"Authorization": "Bearer ..."},
//	    "body": {"data": [1, 2, 3]},
//	    "follow_redirects": true,
//	    "validate_ssl": true,
//	    "timeout_sec": 30,
//	    "fail_on_status": false
//	}
//
// Результат:
//
//	{
//	    "status_code": 200,
//	    "headers": {"Content-Type": "application/json", ...},
//	    "body": {...}  // parsed JSON or string
//	}
func NewHTTP() Action {
	return Action{
		Name:        NameHTTP,
		Description: "performs an HTTP request to the input url",
		Input: schema.Param{
			Name: "url", Type: schema.TypeString, Required: true, Rules: "url",
			Description: "request URL",
		},
		Params: schema.Schema{
			{Name: "method", Type: schema.TypeString, Default: http.MethodGet,
				Rules: "oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"},
			{Name: "headers", Type: schema.TypeObject},
			{Name: "body", Type: schema.TypeAny},
			{Name: "follow_redirects", Type: schema.TypeBoolean, Default: true},
			{Name: "validate_ssl", Type: schema.TypeBoolean, Default: true},
			{Name: "timeout_sec", Type: schema.TypeInteger, Rules: "gte=0"},
			{Name: "fail_on_status", Type: schema.TypeBoolean, Default: false,
				Description: "treat 4xx/5xx responses as failures"},
		},
		Func: doHTTP,
	}
}

func doHTTP(ctx context.Context, args map[string]any) (any, error) {
	var cfg httpConfig
	if err := mapstructure.WeakDecode(args, &cfg); err != nil {
		return nil, fmt.Errorf("decode http args: %w", err)
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}

	client := buildClient(&cfg)

	req, err := buildRequest(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	out, err := parseResponse(resp)
	if err != nil {
		return nil, err
	}

	if cfg.FailOnStatus && resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       fmt.Sprint(out["body"]),
		}
	}

	return out, nil
}

// buildClient создаёт HTTP клиент с нужными настройками.
func buildClient(cfg *httpConfig) *http.Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	// Настройки TLS
	tlsConfig := &tls.Config{
		InsecureSkipVerify: !cfg.ValidateSSL,
	}

	// Настройка редиректов
	var checkRedirect func(*http.Request, []*http.Request) error
	if !cfg.FollowRedirects {
		checkRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
		Transport: &http.Transport{
			TLSClientConfig: tlsConfig,
		},
	}
}

// buildRequest создаёт HTTP запрос.
func buildRequest(ctx context.Context, cfg *httpConfig) (*http.Request, error) {
	var bodyReader io.Reader

	if cfg.Body != nil {
		bodyBytes, err := serializeBody(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("serialize body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)

		// Устанавливаем Content-Type, если не задан
		if _, hasContentType := cfg.Headers["Content-Type"]; !hasContentType {
			cfg.Headers["Content-Type"] = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// serializeBody сериализует body в bytes.
func serializeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// parseResponse парсит HTTP ответ.
func parseResponse(resp *http.Response) (map[string]any, error) {
	// Читаем body с ограничением размера
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var body any
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			// Если не удалось распарсить JSON, возвращаем как строку
			body = string(bodyBytes)
		}
	} else {
		body = string(bodyBytes)
	}

	// Преобразуем headers в map[string]any, чтобы по ним работал поиск по пути
	headers := make(map[string]any)
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        body,
	}, nil
}

// HTTPError — ответ с кодом 4xx/5xx при fail_on_status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error реализует интерфейс error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// IsHTTPError проверяет, является ли ошибка HTTP ошибкой.
func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}
