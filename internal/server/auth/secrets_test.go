package auth

import (
	"regexp"
	"testing"
)

func TestGenerateVerificationCode_SixDigits(t *testing.T) {
	t.Parallel()

	re := regexp.MustCompile(`^[1-9][0-9]{5}$`)
	for i := 0; i < 100; i++ {
		code, err := GenerateVerificationCode()
		if err != nil {
			t.Fatalf("GenerateVerificationCode error: %v", err)
		}
		if !re.MatchString(code) {
			t.Fatalf("code %q is not a six-digit number", code)
		}
	}
}

func TestGenerateResetToken_HexLength(t *testing.T) {
	t.Parallel()

	tok, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken error: %v", err)
	}
	if len(tok) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(tok))
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(tok) {
		t.Fatalf("token %q is not lowercase hex", tok)
	}

	other, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken error: %v", err)
	}
	if tok == other {
		t.Fatalf("two tokens are identical")
	}
}

func TestHashSecret_DeterministicAndDistinct(t *testing.T) {
	t.Parallel()

	a := HashSecret("123456")
	if a != HashSecret("123456") {
		t.Fatalf("hash is not deterministic")
	}
	if a == HashSecret("123457") {
		t.Fatalf("distinct secrets produced the same hash")
	}
	if len(a) != 64 {
		t.Fatalf("digest length = %d, want 64", len(a))
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "pw" {
		t.Fatalf("hash equals plaintext")
	}
	if !CheckPassword(hash, "pw") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "other") {
		t.Fatalf("wrong password accepted")
	}
}
