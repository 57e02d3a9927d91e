package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims ties a bearer token to one server-side session.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type Tokens struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func (t *Tokens) Issue(sid, userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

func (t *Tokens) Parse(raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.SessionID == "" || claims.Subject == "" {
		return nil, errors.New("token: missing session")
	}
	return &claims, nil
}
