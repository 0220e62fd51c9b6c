package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: testSecret, Issuer: "shield-test"})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("too-short")}); err == nil {
		t.Fatal("short secret accepted")
	}
	if _, err := NewManager(Config{Secret: testSecret, Leeway: time.Hour}); err == nil {
		t.Fatal("oversized leeway accepted")
	}
	if _, err := NewManager(Config{Secret: testSecret, Leeway: -time.Second}); err == nil {
		t.Fatal("negative leeway accepted")
	}
	if _, err := NewManager(Config{Secret: testSecret, Leeway: time.Minute}); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestIssueParseRoundtrip(t *testing.T) {
	m := newTestManager(t)

	credential, err := m.Issue("user-1", "session-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Parse(credential)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.UID != "user-1" || claims.SID != "session-1" {
		t.Fatalf("wrong identity: %+v", claims)
	}
	if claims.Issuer != "shield-test" {
		t.Fatalf("wrong issuer: %q", claims.Issuer)
	}
}

func TestIssueRejectsNonPositiveTTL(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Issue("u", "s", 0); err == nil {
		t.Fatal("zero ttl accepted")
	}
	if _, err := m.Issue("u", "s", -time.Hour); err == nil {
		t.Fatal("negative ttl accepted")
	}
}

func TestParseRejectsExpiredCredential(t *testing.T) {
	m := newTestManager(t)

	credential, err := m.Issue("user-1", "session-1", time.Millisecond)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	time.Sleep(1100 * time.Millisecond) // numeric-date precision is one second

	if _, err := m.Parse(credential); !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(Config{Secret: []byte("ffffffffffffffffffffffffffffffff"), Issuer: "shield-test"})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	credential, err := other.Issue("user-1", "session-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(credential); !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(Config{Secret: testSecret, Issuer: "someone-else"})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	credential, err := other.Issue("user-1", "session-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(credential); !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	for _, credential := range []string{"", "abc", "a.b.c", strings.Repeat("x", 512)} {
		if _, err := m.Parse(credential); !errors.Is(err, ErrInvalid) {
			t.Fatalf("credential %q: want ErrInvalid, got %v", credential, err)
		}
	}
}

func TestParseRejectsUnsignedAlgorithm(t *testing.T) {
	m := newTestManager(t)

	claims := Claims{
		UID: "user-1",
		SID: "session-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "shield-test",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	credential, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if _, err := m.Parse(credential); !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}

func TestParseRejectsMissingIdentity(t *testing.T) {
	m := newTestManager(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "shield-test",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	credential, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if _, err := m.Parse(credential); !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}
