package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestHashToken(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		hash, err := HashToken("secret-api-token")
		if err != nil {
			t.Fatalf("HashToken returned error: %v", err)
		}
		if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
			t.Errorf("hash does not look like bcrypt: %s", hash)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := HashToken("")
		if !errors.Is(err, ErrEmptyToken) {
			t.Errorf("expected ErrEmptyToken, got %v", err)
		}
	})

	t.Run("too long token", func(t *testing.T) {
		_, err := HashToken(strings.Repeat("a", 73))
		if !errors.Is(err, ErrTokenTooLong) {
			t.Errorf("expected ErrTokenTooLong, got %v", err)
		}
	})

	t.Run("different hashes for same token", func(t *testing.T) {
		// bcrypt генерирует случайный salt
		hash1, _ := HashToken("token")
		hash2, _ := HashToken("token")
		if hash1 == hash2 {
			t.Error("two hashes of the same token should differ")
		}
	})
}

func TestVerifyToken(t *testing.T) {
	hash, err := HashToken("correct-token")
	if err != nil {
		t.Fatalf("HashToken failed: %v", err)
	}

	t.Run("correct token", func(t *testing.T) {
		if err := VerifyToken("correct-token", hash); err != nil {
			t.Errorf("VerifyToken failed for correct token: %v", err)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		err := VerifyToken("wrong-token", hash)
		if !errors.Is(err, ErrTokenMismatch) {
			t.Errorf("expected ErrTokenMismatch, got %v", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		err := VerifyToken("", hash)
		if !errors.Is(err, ErrEmptyToken) {
			t.Errorf("expected ErrEmptyToken, got %v", err)
		}
	})

	t.Run("empty hash", func(t *testing.T) {
		err := VerifyToken("token", "")
		if !errors.Is(err, ErrInvalidHash) {
			t.Errorf("expected ErrInvalidHash, got %v", err)
		}
	})

	t.Run("invalid hash format", func(t *testing.T) {
		err := VerifyToken("token", "not-a-bcrypt-hash")
		if !errors.Is(err, ErrInvalidHash) {
			t.Errorf("expected ErrInvalidHash, got %v", err)
		}
	})
}

func TestCheckTokenMatch(t *testing.T) {
	hash, _ := HashToken("token")

	if !CheckTokenMatch("token", hash) {
		t.Error("CheckTokenMatch returned false for correct token")
	}
	if CheckTokenMatch("other", hash) {
		t.Error("CheckTokenMatch returned true for wrong token")
	}
}
