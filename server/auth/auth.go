// Package auth issues and verifies the access tokens that tie a request to a
// user and a session, and wraps password hashing.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned for malformed, forged or expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload carried by an access token: the user id and the
// session id. Deleting the session server-side invalidates the token.
type Claims struct {
	UID string
	SID string
}

// Auth signs and parses HMAC access tokens.
type Auth struct {
	signingKey []byte
	tokenTTL   time.Duration
}

// New creates an Auth with the given signing key. Tokens expire after 24
// hours.
func New(signingKey string) *Auth {
	return &Auth{signingKey: []byte(signingKey), tokenTTL: 24 * time.Hour}
}

// CreateToken signs a token for the given user and session ids.
func (a *Auth) CreateToken(uid, sid string) (string, error) {
	claims := jwt.MapClaims{
		"uid": uid,
		"sid": sid,
		"exp": time.Now().Add(a.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", errors.New("failed to create auth token")
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry and extracts the claims.
func (a *Auth) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	uid, _ := mapClaims["uid"].(string)
	sid, _ := mapClaims["sid"].(string)
	if uid == "" || sid == "" {
		return nil, ErrInvalidToken
	}
	return &Claims{UID: uid, SID: sid}, nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
