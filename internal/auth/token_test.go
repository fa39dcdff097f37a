package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"go-pos-console/internal/auth/authtest"
	"go-pos-console/internal/models"
)

func TestDecodeReadsIdentity(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := authtest.Token(42, "cashier01", "ROLE_ADMIN", exp)

	claims, err := Decode(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	u := claims.User()
	if u.ID != 42 || u.Username != "cashier01" || u.Role != models.RoleAdmin {
		t.Fatalf("unexpected user %+v", u)
	}
	if !claims.Expiry().Equal(exp) {
		t.Fatalf("expiry = %v, want %v", claims.Expiry(), exp)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte("not json"))
	cases := []string{
		"",
		"only.two",
		"a.b.c.d",
		"header.%%%.sig",
		"eyJhbGciOiJIUzI1NiJ9." + payload + ".sig",
	}
	for _, tok := range cases {
		if _, err := Decode(tok); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", tok)
		}
		if !IsTokenExpired(tok, time.Now()) {
			t.Errorf("IsTokenExpired(%q) = false, want true", tok)
		}
	}
}

func TestExpiryMonotonicity(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(90 * time.Second)
	tok := authtest.Token(1, "u", "USER", exp)

	if IsTokenExpired(tok, now) {
		t.Fatal("token expired before its expiry")
	}
	if got := TimeUntilExpiry(tok, now); got != 90*time.Second {
		t.Fatalf("TimeUntilExpiry = %v, want 90s", got)
	}
	if !IsTokenExpired(tok, exp) {
		t.Fatal("token not expired at its expiry")
	}
	if !IsTokenExpired(tok, exp.Add(time.Minute)) {
		t.Fatal("token not expired after its expiry")
	}
	if got := TimeUntilExpiry(tok, exp.Add(time.Minute)); got != 0 {
		t.Fatalf("TimeUntilExpiry after expiry = %v, want 0", got)
	}
}

func TestRoleClaimAsString(t *testing.T) {
	var r RoleList
	if err := r.UnmarshalJSON([]byte(`"USER"`)); err != nil {
		t.Fatal(err)
	}
	if len(r) != 1 || r[0] != "USER" {
		t.Fatalf("roles = %v", r)
	}
}
