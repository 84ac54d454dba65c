package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrNoSigningKey   = errors.New("signing key not configured")
)

const HASH_ROUNDS = 10

// SigningKeys holds the HMAC secrets for one token type. Previous is
// accepted on verification only, so secrets can be rotated without logging
// everybody out.
type SigningKeys struct {
	Current  []byte
	Previous []byte
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HASH_ROUNDS)
	return string(bytes), err
}

func ComparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// HashToken returns the hex SHA-256 of a token. Refresh tokens are stored
// in this form only.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func CreateJWTToken(claims jwt.Claims, signingKey []byte) (string, error) {
	if len(signingKey) == 0 {
		return "", ErrNoSigningKey
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

func parseJWTToken(tokenString string, claims jwt.Claims, signingKey []byte) error {
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New(JWT_TOKEN_PARSING_ERROR)
		}
		return signingKey, nil
	})
	return err
}

// VerifyJWTToken parses tokenString into claims, trying the current key
// first and the previous one second.
func VerifyJWTToken(tokenString string, keys SigningKeys, claims jwt.Claims) error {
	if len(keys.Current) == 0 {
		return ErrNoSigningKey
	}
	errCurrent := parseJWTToken(tokenString, claims, keys.Current)
	if errCurrent == nil {
		return nil
	}
	if len(keys.Previous) > 0 && isSignatureError(errCurrent) {
		if errPrevious := parseJWTToken(tokenString, claims, keys.Previous); errPrevious == nil {
			return nil
		} else if !isSignatureError(errPrevious) {
			return classifyJWTError(errPrevious)
		}
	}
	return classifyJWTError(errCurrent)
}

func isSignatureError(err error) bool {
	var validationErr *jwt.ValidationError
	return errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorSignatureInvalid != 0
}

func classifyJWTError(err error) error {
	var validationErr *jwt.ValidationError
	if !errors.As(err, &validationErr) {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	switch {
	case validationErr.Errors&jwt.ValidationErrorMalformed != 0:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case validationErr.Errors&jwt.ValidationErrorExpired != 0:
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

// RetryMessage tells a throttled client how long to wait.
func RetryMessage(wait time.Duration) string {
	timeLeft := int(wait.Round(time.Minute).Minutes())
	if timeLeft <= 1 {
		return "Please try again in 1 minute."
	}
	return fmt.Sprintf("Please try again in %d minutes.", timeLeft)
}
