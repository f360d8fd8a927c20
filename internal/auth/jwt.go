package auth

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	defaultAccessHours = 24
	refreshDays        = 30
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
)

// defaultSecret matches the config default so tokens signed here verify
// against middleware configured with an unset JWT_SECRET.
const defaultSecret = "supersecretkey"

func secretKey() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte(defaultSecret)
}

func accessExpiry() time.Duration {
	hours, err := strconv.Atoi(os.Getenv("JWT_EXPIRY_HOURS"))
	if err != nil || hours <= 0 {
		hours = defaultAccessHours
	}
	return time.Duration(hours) * time.Hour
}

// GenerateAccessToken issues the short-lived bearer token.
func GenerateAccessToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    tokenTypeAccess,
		"exp":     time.Now().Add(accessExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// GenerateRefreshToken issues the long-lived token used to mint new
// access tokens. The jti identifies it on the revocation denylist.
func GenerateRefreshToken(userID string) (token string, jti string, expiresAt time.Time, err error) {
	jti = uuid.NewString()
	expiresAt = time.Now().Add(refreshDays * 24 * time.Hour)
	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    tokenTypeRefresh,
		"jti":     jti,
		"exp":     expiresAt.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(secretKey())
	return token, jti, expiresAt, err
}

func parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secretKey(), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["user_id"] == nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// ParseAccessToken validates an access token and returns the user id.
// Refresh tokens are rejected here.
func ParseAccessToken(tokenStr string) (string, error) {
	claims, err := parse(tokenStr)
	if err != nil {
		return "", err
	}
	if t, _ := claims["type"].(string); t != "" && t != tokenTypeAccess {
		return "", ErrInvalidToken
	}
	return claims["user_id"].(string), nil
}

// ParseRefreshToken validates a refresh token and returns the user id,
// jti and expiry.
func ParseRefreshToken(tokenStr string) (userID, jti string, expiresAt time.Time, err error) {
	claims, err := parse(tokenStr)
	if err != nil {
		return "", "", time.Time{}, err
	}
	if t, _ := claims["type"].(string); t != tokenTypeRefresh {
		return "", "", time.Time{}, ErrInvalidToken
	}
	jti, _ = claims["jti"].(string)
	if jti == "" {
		return "", "", time.Time{}, ErrInvalidClaims
	}
	exp, _ := claims["exp"].(float64)
	return claims["user_id"].(string), jti, time.Unix(int64(exp), 0), nil
}
