package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_StateClosed(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:             "test",
		FailureThreshold: 3,
		ResetTimeout:     1 * time.Second,
		HalfOpenMaxCalls: 2,
		SuccessThreshold: 2,
	})

	// Проверяем начальное состояние
	if cb.State() != StateClosed {
		t.Errorf("Expected initial state to be Closed, got %v", cb.State())
	}

	// Проверяем успешные запросы
	for i := 0; i < 5; i++ {
		err := cb.Execute(context.Background(), func(ctx context.Context) error {
			return nil
		})
		if err != nil {
			t.Errorf("Expected success, got error: %v", err)
		}
	}

	// Проверяем, что состояние не изменилось
	if cb.State() != StateClosed {
		t.Errorf("Expected state to remain Closed after successes, got %v", cb.State())
	}
}

func TestCircuitBreaker_StateOpen(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:             "test",
		FailureThreshold: 3,
		ResetTimeout:     1 * time.Second,
		HalfOpenMaxCalls: 2,
		SuccessThreshold: 2,
	})

	// Вызываем ошибки до достижения порога
	testErr := errors.New("test error")
	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func(ctx context.Context) error {
			return testErr
		})
		if err != testErr {
			t.Errorf("Expected test error, got: %v", err)
		}
	}

	// Проверяем переход в состояние Open
	if cb.State() != StateOpen {
		t.Errorf("Expected state to be Open after failures, got %v", cb.State())
	}

	// Проверяем, что запросы отклоняются
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != ErrCircuitOpen {
		t.Errorf("Expected circuit open error, got: %v", err)
	}
}

func TestCircuitBreaker_StateHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:             "test",
		FailureThreshold: 3,
		ResetTimeout:     100 * time.Millisecond,
		HalfOpenMaxCalls: 2,
		SuccessThreshold: 2,
	})

	// Переводим в состояние Open
	testErr := errors.New("test error")
	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error {
			return testErr
		})
	}

	// Ждем перехода в Half-Open
	time.Sleep(150 * time.Millisecond)

	// Проверяем успешные запросы в Half-Open
	for i := 0; i < 2; i++ {
		err := cb.Execute(context.Background(), func(ctx context.Context) error {
			return nil
		})
		if err != nil {
			t.Errorf("Expected success in half-open state, got error: %v", err)
		}
	}

	// Проверяем переход в Closed
	if cb.State() != StateClosed {
		t.Errorf("Expected state to be Closed after successes in half-open, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:             "test",
		FailureThreshold: 3,
		ResetTimeout:     100 * time.Millisecond,
		HalfOpenMaxCalls: 2,
		SuccessThreshold: 2,
	})

	// Переводим в состояние Open
	testErr := errors.New("test error")
	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error {
			return testErr
		})
	}

	// Ждем перехода в Half-Open
	time.Sleep(150 * time.Millisecond)

	// Проверяем, что ошибка в Half-Open возвращает в Open
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		return testErr
	})
	if err != testErr {
		t.Errorf("Expected test error in half-open state, got: %v", err)
	}

	if cb.State() != StateOpen {
		t.Errorf("Expected state to be Open after failure in half-open, got %v", cb.State())
	}
}

func TestCircuitBreaker_CancelledRequestsDoNotOpen(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:             "test_cancel",
		FailureThreshold: 1,
		ResetTimeout:     time.Second,
	})

	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected state to stay Closed after client cancellation, got %v", cb.State())
	}
}

func TestCircuitBreaker_CustomFailurePredicate(t *testing.T) {
	clientErr := errors.New("bad request")
	cb := NewCircuitBreaker(Config{
		Name:             "test_predicate",
		FailureThreshold: 1,
		ResetTimeout:     time.Second,
		IsFailure: func(err error) bool {
			return !errors.Is(err, clientErr)
		},
	})

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return clientErr })
	if cb.State() != StateClosed {
		t.Errorf("Expected Closed after non-failure error, got %v", cb.State())
	}
}

func TestCircuitBreaker_DoneContextIsNotExecuted(t *testing.T) {
	cb := NewCircuitBreaker(Config{Name: "test_done"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Errorf("Expected cancelled context to short-circuit, err=%v called=%v", err, called)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CIRCUIT_BREAKER_FAILURE_THRESHOLD", "7")
	t.Setenv("CIRCUIT_BREAKER_RESET_TIMEOUT", "3s")

	cfg := ConfigFromEnv("emailjs")
	if cfg.Name != "emailjs" || cfg.FailureThreshold != 7 || cfg.ResetTimeout != 3*time.Second {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.HalfOpenMaxCalls != 2 || cfg.SuccessThreshold != 2 {
		t.Errorf("Expected defaults for half-open settings, got %+v", cfg)
	}
}
