package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"driverhire/internal/models"
)

// TokenIssuer signs and parses session tokens.
type TokenIssuer interface {
	Issue(session *models.Session) (string, error)
	Parse(token string) (*SessionClaims, error)
}

type SessionClaims struct {
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	MobileNumber string `json:"mobile_number"`
	jwt.RegisteredClaims
}

type jwtIssuer struct {
	secret []byte
	issuer string
}

func NewTokenIssuer(secret, issuer string) TokenIssuer {
	return &jwtIssuer{secret: []byte(secret), issuer: issuer}
}

func (j *jwtIssuer) Issue(session *models.Session) (string, error) {
	claims := &SessionClaims{
		UserID:       session.UserID,
		SessionID:    session.ID,
		MobileNumber: session.MobileNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   session.UserID,
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(session.Expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *jwtIssuer) Parse(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}
