package otp

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestIssueProducesSixDigits(t *testing.T) {
	m := NewManager(NewMemoryRepository(), 10*time.Minute)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		code, err := m.Issue(ctx, "user-1", "a@x.com", "", PurposeEmailVerification)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, ch := range code {
			if ch < '0' || ch > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
	}
}

func TestIssueRejectsUnknownPurpose(t *testing.T) {
	m := NewManager(NewMemoryRepository(), 10*time.Minute)
	if _, err := m.Issue(context.Background(), "user-1", "a@x.com", "", "magic_link"); err == nil {
		t.Fatal("expected error for unknown purpose")
	}
}

func TestVerifyConsumesOnce(t *testing.T) {
	m := NewManager(NewMemoryRepository(), 10*time.Minute)
	ctx := context.Background()

	code, err := m.Issue(ctx, "user-1", "a@x.com", "", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ok, err := m.Verify(ctx, "a@x.com", "", code, PurposeEmailVerification)
	if err != nil || !ok {
		t.Fatalf("first verify: ok=%v err=%v", ok, err)
	}
	ok, err = m.Verify(ctx, "a@x.com", "", code, PurposeEmailVerification)
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if ok {
		t.Fatal("code consumed twice")
	}
}

func TestVerifyChecksPurposeAndChannel(t *testing.T) {
	m := NewManager(NewMemoryRepository(), 10*time.Minute)
	ctx := context.Background()

	code, err := m.Issue(ctx, "user-1", "a@x.com", "", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if ok, _ := m.Verify(ctx, "a@x.com", "", code, PurposeLoginVerification); ok {
		t.Fatal("wrong purpose accepted")
	}
	if ok, _ := m.Verify(ctx, "b@x.com", "", code, PurposeEmailVerification); ok {
		t.Fatal("wrong email accepted")
	}
	if ok, _ := m.Verify(ctx, "a@x.com", "", code, PurposeEmailVerification); !ok {
		t.Fatal("correct attempt rejected after failed ones")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	// Negative TTL makes every issued code already expired.
	m := NewManager(NewMemoryRepository(), -time.Minute)
	ctx := context.Background()

	code, err := m.Issue(ctx, "user-1", "a@x.com", "", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if ok, _ := m.Verify(ctx, "a@x.com", "", code, PurposeEmailVerification); ok {
		t.Fatal("expired code accepted")
	}
}

func TestResendKeepsPriorCodesValid(t *testing.T) {
	m := NewManager(NewMemoryRepository(), 10*time.Minute)
	ctx := context.Background()

	first, err := m.Issue(ctx, "user-1", "a@x.com", "", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := m.Issue(ctx, "user-1", "a@x.com", "", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}

	if ok, _ := m.Verify(ctx, "a@x.com", "", first, PurposeEmailVerification); !ok {
		t.Fatal("original code invalidated by resend")
	}
	if second != first {
		if ok, _ := m.Verify(ctx, "a@x.com", "", second, PurposeEmailVerification); !ok {
			t.Fatal("resent code not valid")
		}
	}
}

func TestConcurrentConsumeAtMostOnce(t *testing.T) {
	m := NewManager(NewMemoryRepository(), 10*time.Minute)
	ctx := context.Background()

	code, err := m.Issue(ctx, "user-1", "a@x.com", "", PurposeLoginVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.Verify(ctx, "a@x.com", "", code, PurposeLoginVerification)
			if err != nil {
				t.Errorf("verify: %v", err)
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", successes)
	}
}
