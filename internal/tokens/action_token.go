package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Actions that can be carried in an emailed link
const (
	ActionCancelRSVP  = "cancel_rsvp"
	ActionCancelClaim = "cancel_claim"
)

var ErrInvalidToken = errors.New("invalid action token")

// ActionClaims are the JWT claims of a signed action link
type ActionClaims struct {
	Action   string `json:"act"`
	RecordID int64  `json:"rid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies action tokens used in emailed confirm/cancel links
type Issuer struct {
	secret []byte
}

// NewIssuer creates an action token issuer
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue signs a token authorizing action on the given record until ttl elapses
func (i *Issuer) Issue(action string, recordID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ActionClaims{
		Action:   action,
		RecordID: recordID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign action token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims if the signature and expiry hold
func (i *Issuer) Verify(tokenString string) (*ActionClaims, error) {
	claims := &ActionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Action == "" || claims.RecordID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
