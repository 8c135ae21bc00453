package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Ошибки проверки токена
var (
	ErrEmptyToken    = errors.New("token cannot be empty")
	ErrTokenMismatch = errors.New("token does not match hash")
	ErrInvalidHash   = errors.New("invalid token hash format")
	ErrTokenTooLong  = errors.New("token exceeds maximum length of 72 bytes")
)

// DefaultCost - стоимость хеширования по умолчанию
const DefaultCost = 12

// MaxTokenLength - предел bcrypt (72 байта)
const MaxTokenLength = 72

// HashToken хеширует API-токен с использованием bcrypt.
// Используется утилитой генерации токена; сервер хранит только хеш
func HashToken(token string) (string, error) {
	if token == "" {
		return "", ErrEmptyToken
	}

	if len(token) > MaxTokenLength {
		return "", ErrTokenTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyToken проверяет соответствие токена хешу.
// Сравнение внутри bcrypt - constant-time
func VerifyToken(token, hash string) error {
	if token == "" {
		return ErrEmptyToken
	}

	if hash == "" {
		return ErrInvalidHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrTokenMismatch
		}
		// Невалидный формат хеша или другая ошибка
		return ErrInvalidHash
	}

	return nil
}

// CheckTokenMatch проверяет соответствие токена хешу и возвращает bool.
// Удобная обёртка для middleware
func CheckTokenMatch(token, hash string) bool {
	return VerifyToken(token, hash) == nil
}
