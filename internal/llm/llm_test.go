package llm

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestSplitSystem(t *testing.T) {
	turns := []Turn{
		{Role: RoleSystem, Content: "first rule"},
		{Role: RoleSystem, Content: "second rule"},
		{Role: RoleUser, Content: "question"},
		{Role: RoleAssistant, Content: "answer"},
	}

	system, rest := SplitSystem(turns)
	if system != "first rule\n\nsecond rule" {
		t.Errorf("system = %q", system)
	}
	if len(rest) != 2 || rest[0].Role != RoleUser {
		t.Errorf("rest = %+v", rest)
	}
}

func TestSplitSystem_NoSystem(t *testing.T) {
	turns := []Turn{{Role: RoleUser, Content: "q"}}
	system, rest := SplitSystem(turns)
	if system != "" {
		t.Errorf("system = %q, want empty", system)
	}
	if len(rest) != 1 {
		t.Errorf("rest = %+v", rest)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New("carrier-pigeon", "model"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestIsAuthError(t *testing.T) {
	if !IsAuthError(&authError{message: "bad key"}) {
		t.Error("authError not detected")
	}
	wrapped := fmt.Errorf("request failed: %w", &authError{message: "bad key"})
	if !IsAuthError(wrapped) {
		t.Error("wrapped authError not detected")
	}
	if IsAuthError(fmt.Errorf("other failure")) {
		t.Error("false positive for plain error")
	}
	if IsAuthError(&rateLimitError{}) {
		t.Error("false positive for rate limit error")
	}
}

func TestRetryWithBackoff_SucceedsAfterRateLimit(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 2, func() error {
		calls++
		if calls == 1 {
			return &rateLimitError{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryWithBackoff_AuthErrorImmediate(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		calls++
		return &authError{message: "invalid key"}
	})
	if !IsAuthError(err) {
		t.Errorf("err = %v, want auth error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on auth errors)", calls)
	}
}

func TestRetryWithBackoff_NonRetryableImmediate(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		calls++
		return fmt.Errorf("malformed request")
	})
	if err == nil || calls != 1 {
		t.Errorf("err = %v, calls = %d; want immediate failure", err, calls)
	}
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := retryWithBackoff(ctx, 3, func() error {
		return &serverError{statusCode: 500, body: "boom"}
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("canceled context should stop backoff promptly")
	}
}
