package action

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shaiso/Flagship/internal/schema"
)

// call проверяет аргументы и вход так же, как это делает шаг, и вызывает action.
func call(t *testing.T, a Action, input any, args map[string]any) (any, error) {
	t.Helper()

	checked, err := a.Params.Check(args)
	if err != nil {
		t.Fatalf("args rejected: %v", err)
	}
	in, err := a.Input.Validate(input)
	if err != nil {
		t.Fatalf("input rejected: %v", err)
	}
	checked[a.Input.Name] = in

	return a.Func(context.Background(), checked)
}

// Registry Tests

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	// Пустой реестр
	if r.Count() != 0 {
		t.Errorf("expected empty registry")
	}

	// Регистрация
	r.MustRegister(NewDelay())
	if r.Count() != 1 {
		t.Errorf("expected 1 action, got %d", r.Count())
	}

	// Получение
	a, err := r.Get("delay")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if a.Name != "delay" {
		t.Errorf("expected delay, got %s", a.Name)
	}

	// Несуществующий action
	_, err = r.Get("unknown")
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}

	// Has
	if !r.Has("delay") {
		t.Error("should have delay")
	}
	if r.Has("unknown") {
		t.Error("should not have unknown")
	}

	// Unregister
	r.Unregister("delay")
	if r.Has("delay") {
		t.Error("should not have delay after unregister")
	}
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	noop := func(context.Context, map[string]any) (any, error) { return nil, nil }

	tests := []struct {
		name   string
		action Action
	}{
		{"empty name", Action{Func: noop, Input: schema.Param{Name: "in"}}},
		{"nil func", Action{Name: "a", Input: schema.Param{Name: "in"}}},
		{"no input name", Action{Name: "a", Func: noop}},
		{"bad input type", Action{Name: "a", Func: noop, Input: schema.Param{Name: "in", Type: "date"}}},
		{"input collides", Action{Name: "a", Func: noop, Input: schema.Param{Name: "x"},
			Params: schema.Schema{{Name: "x"}}}},
		{"bad params", Action{Name: "a", Func: noop, Input: schema.Param{Name: "in"},
			Params: schema.Schema{{Name: "p"}, {Name: "p"}}}},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Register(tt.action); !errors.Is(err, ErrInvalidAction) {
				t.Errorf("expected ErrInvalidAction, got %v", err)
			}
		})
	}
	if r.Count() != 0 {
		t.Errorf("invalid actions should not be registered")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	expected := []string{"compare", "delay", "expr", "http", "regex_match"}
	names := r.Names()
	if len(names) != len(expected) {
		t.Fatalf("expected %d actions, got %d", len(expected), len(names))
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("expected %s at %d, got %s", name, i, names[i])
		}
	}
	if len(r.List()) != len(expected) {
		t.Errorf("List should return all actions")
	}
}

// Delay Tests

func TestDelay_PassThrough(t *testing.T) {
	start := time.Now()
	out, err := call(t, NewDelay(), "payload", map[string]any{"duration_ms": 50})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "payload" {
		t.Errorf("expected payload, got %v", out)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("delay too short: %v", elapsed)
	}
}

func TestDelay_Cancellation(t *testing.T) {
	a := NewDelay()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.Func(ctx, map[string]any{"duration_ms": 5000, "value": 1})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}

func TestDelay_InvalidArgs(t *testing.T) {
	a := NewDelay()

	if _, err := a.Params.Check(map[string]any{}); !errors.Is(err, schema.ErrMissingParam) {
		t.Errorf("expected ErrMissingParam, got %v", err)
	}
	if _, err := a.Params.Check(map[string]any{"duration_ms": -1}); !errors.Is(err, schema.ErrRuleViolation) {
		t.Errorf("expected ErrRuleViolation, got %v", err)
	}
}

// HTTP Tests

func TestHTTP_GET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"data":   []int{1, 2, 3},
		})
	}))
	defer server.Close()

	out, err := call(t, NewHTTP(), server.URL, map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := out.(map[string]any)
	if result["status_code"] != 200 {
		t.Errorf("expected status_code 200, got %v", result["status_code"])
	}

	body, ok := result["body"].(map[string]any)
	if !ok {
		t.Fatalf("expected body to be map, got %T", result["body"])
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", body["status"])
	}
}

func TestHTTP_POST_JSON(t *testing.T) {
	var receivedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json")
		}

		json.NewDecoder(r.Body).Decode(&receivedBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 123})
	}))
	defer server.Close()

	out, err := call(t, NewHTTP(), server.URL, map[string]any{
		"method": "POST",
		"body": map[string]any{
			"name":  "test",
			"value": 42,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.(map[string]any)["status_code"] != 201 {
		t.Errorf("expected status_code 201, got %v", out.(map[string]any)["status_code"])
	}
	if receivedBody["name"] != "test" {
		t.Errorf("expected name 'test', got %v", receivedBody["name"])
	}
}

func TestHTTP_WithHeaders(t *testing.T) {
	var receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := call(t, NewHTTP(), server.URL, map[string]any{
		"headers": map[string]any{
			"Authorization": "Bearer secret123",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedAuth != "Bearer secret123" {
		t.Errorf("expected auth header, got %s", receivedAuth)
	}
}

func TestHTTP_FailOnStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	// По умолчанию код ответа не считается ошибкой
	out, err := call(t, NewHTTP(), server.URL, map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(map[string]any)["status_code"] != 503 {
		t.Errorf("expected 503, got %v", out.(map[string]any)["status_code"])
	}

	_, err = call(t, NewHTTP(), server.URL, map[string]any{"fail_on_status": true})
	if !IsHTTPError(err) {
		t.Errorf("expected HTTPError, got %v", err)
	}
}

func TestHTTP_InvalidInput(t *testing.T) {
	a := NewHTTP()

	if _, err := a.Input.Validate(nil); !errors.Is(err, schema.ErrMissingParam) {
		t.Errorf("expected ErrMissingParam, got %v", err)
	}
	if _, err := a.Input.Validate("not a url"); !errors.Is(err, schema.ErrRuleViolation) {
		t.Errorf("expected ErrRuleViolation, got %v", err)
	}
	if _, err := a.Params.Check(map[string]any{"method": "FETCH"}); !errors.Is(err, schema.ErrRuleViolation) {
		t.Errorf("expected ErrRuleViolation for method, got %v", err)
	}
}

func TestHTTP_Cancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	a := NewHTTP()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	args, _ := a.Params.Check(map[string]any{})
	args["url"] = server.URL

	_, err := a.Func(ctx, args)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}

// Compare / regex / expr

func TestCompare(t *testing.T) {
	tests := []struct {
		op       string
		value    any
		operand  any
		expected bool
	}{
		{">", 5, 3, true},
		{">=", 3, 3, true},
		{"<", "2", 3, true},
		{"<=", 4.5, 4, false},
		{"==", 7, 7.0, true},
		{"!=", 1, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			out, err := call(t, NewCompare(), tt.value, map[string]any{"operator": tt.op, "operand": tt.operand})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, out)
			}
		})
	}

	if _, err := NewCompare().Params.Check(map[string]any{"operator": "~", "operand": 1}); !errors.Is(err, schema.ErrRuleViolation) {
		t.Errorf("expected ErrRuleViolation for operator, got %v", err)
	}
}

func TestRegexMatch(t *testing.T) {
	out, err := call(t, NewRegexMatch(), "order-42", map[string]any{"regex": `^order-\d+$`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != true {
		t.Errorf("expected match")
	}

	out, err = call(t, NewRegexMatch(), "invoice", map[string]any{"regex": `^order-\d+$`})
	if err != nil || out != false {
		t.Errorf("expected no match, got %v, %v", out, err)
	}

	if _, err := call(t, NewRegexMatch(), "x", map[string]any{"regex": "("}); err == nil {
		t.Error("expected error for broken regex")
	}
}

func TestExpr(t *testing.T) {
	out, err := call(t, NewExpr(), 4, map[string]any{
		"expression": "value * args.k",
		"vars":       map[string]any{"k": 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 12 {
		t.Errorf("expected 12, got %v", out)
	}
}
