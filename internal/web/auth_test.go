package web

import (
	"strings"
	"testing"

	"github.com/tandemhq/tandem/internal/config"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("expected argon2id PHC string, got %s", hash)
	}

	if !verifyArgon2id(hash, "correct horse battery staple") {
		t.Error("expected matching password to verify")
	}
	if verifyArgon2id(hash, "wrong password") {
		t.Error("expected wrong password to fail")
	}
}

func TestVerifyArgon2id_Malformed(t *testing.T) {
	bad := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	}
	for _, h := range bad {
		if verifyArgon2id(h, "password") {
			t.Errorf("expected %q to fail verification", h)
		}
	}
}

func TestVerifyPassword(t *testing.T) {
	// Plaintext auth
	s := &Server{cfg: config.WebConfig{Auth: "secret"}}
	if !s.verifyPassword("secret") {
		t.Error("expected plaintext password to verify")
	}
	if s.verifyPassword("other") {
		t.Error("expected wrong plaintext password to fail")
	}

	// No auth at all: never verifies
	s = &Server{}
	if s.verifyPassword("") || s.verifyPassword("anything") {
		t.Error("expected verification to fail with no auth configured")
	}

	// Hash takes precedence over plaintext
	hash, err := HashPassword("hashed-secret")
	if err != nil {
		t.Fatal(err)
	}
	s = &Server{cfg: config.WebConfig{Auth: "plain", AuthHash: hash}}
	if !s.verifyPassword("hashed-secret") {
		t.Error("expected hashed password to verify")
	}
	if s.verifyPassword("plain") {
		t.Error("expected plaintext to be ignored when hash is set")
	}
}
