package helix

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried by extension tokens.
const (
	RoleExternal    = "external"
	RoleBroadcaster = "broadcaster"
	RoleModerator   = "moderator"
	RoleViewer      = "viewer"
)

var ErrInvalidToken = errors.New("invalid extension token")

// Claims is the payload of an extension JWT.
type Claims struct {
	UserID       string `json:"user_id,omitempty"`
	OpaqueUserID string `json:"opaque_user_id,omitempty"`
	ChannelID    string `json:"channel_id,omitempty"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

// Signer signs and verifies HS256 extension tokens with the shared
// extension secret.
type Signer struct {
	secret  []byte
	ownerID string
	ttl     time.Duration
	nowFn   func() time.Time
}

// NewSigner decodes the base64 extension secret.
func NewSigner(base64Secret, ownerID string) (*Signer, error) {
	base64Secret = strings.TrimSpace(base64Secret)
	if base64Secret == "" {
		return nil, fmt.Errorf("helix: extension secret is empty")
	}
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("helix: decode extension secret: %w", err)
	}
	return &Signer{
		secret:  secret,
		ownerID: strings.TrimSpace(ownerID),
		ttl:     3 * time.Minute,
		nowFn:   time.Now,
	}, nil
}

// ExternalToken signs a short-lived token for calls made by this backend on
// behalf of the extension owner.
func (s *Signer) ExternalToken() (string, error) {
	now := s.nowFn()
	claims := &Claims{
		UserID: s.ownerID,
		Role:   RoleExternal,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("helix: sign token: %w", err)
	}
	return signed, nil
}

// Sign issues a token with arbitrary claims; used by tests and local tooling
// to mint broadcaster tokens.
func (s *Signer) Sign(claims Claims) (string, error) {
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(s.nowFn().Add(s.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(s.secret)
}

// Verify parses a token sent by an extension frontend.
func (s *Signer) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.nowFn))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
