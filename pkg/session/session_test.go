package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(testKey, opts...)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	token, err := m.Issue("usr_abc")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "usr_abc" {
		t.Errorf("subject = %s, want usr_abc", claims.Subject)
	}
}

func TestRejectsShortKey(t *testing.T) {
	t.Parallel()

	if _, err := NewManager([]byte("too short")); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	token, err := m.Issue("usr_abc")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected compact JWS with 3 segments, got %d", len(parts))
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := m.Verify(tampered); err == nil {
		t.Fatal("expected verification failure for tampered token")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	token, err := m.Issue("usr_abc")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	other, err := NewManager([]byte("ffffffffffffffffffffffffffffffff"))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification failure under a different key")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := now
	m := newTestManager(t,
		WithTTL(time.Hour),
		WithClock(func() time.Time { return clock }),
	)

	token, err := m.Issue("usr_abc")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	clock = now.Add(2 * time.Hour)
	if _, err := m.Verify(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	for _, tok := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := m.Verify(tok); err == nil {
			t.Errorf("expected error for token %q", tok)
		}
	}
}

func TestResolveRotatesAgedTokens(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := now
	m := newTestManager(t,
		WithTTL(24*time.Hour),
		WithRefreshAfter(15*time.Minute),
		WithClock(func() time.Time { return clock }),
	)

	token, err := m.Issue("usr_abc")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Fresh token: no rotation.
	subject, refreshed, err := m.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if subject != "usr_abc" {
		t.Errorf("subject = %s, want usr_abc", subject)
	}
	if refreshed != "" {
		t.Error("fresh token must not rotate")
	}

	// Aged past the refresh threshold: rotation.
	clock = now.Add(time.Hour)
	subject, refreshed, err = m.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if subject != "usr_abc" {
		t.Errorf("subject = %s, want usr_abc", subject)
	}
	if refreshed == "" {
		t.Fatal("aged token must rotate")
	}
	if refreshed == token {
		t.Error("rotated token must differ from the original")
	}

	// The rotated token verifies and carries the same subject.
	claims, err := m.Verify(refreshed)
	if err != nil {
		t.Fatalf("rotated token failed verification: %v", err)
	}
	if claims.Subject != "usr_abc" {
		t.Errorf("rotated subject = %s, want usr_abc", claims.Subject)
	}
}
