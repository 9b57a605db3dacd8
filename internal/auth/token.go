package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims are the session claims carried by a bearer token
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session is the authenticated caller of a request
type Session struct {
	UserID string
	Role   models.Role
}

// IsStaff reports whether the session belongs to staff
func (s Session) IsStaff() bool {
	return s.Role == models.RoleAdmin
}

// TokenService issues and validates HS256 session tokens
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

func NewTokenService(signingKey, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Issue signs a token for userID acting as role
func (s *TokenService) Issue(userID string, role models.Role) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("issue token: empty user id")
	}
	if !role.Valid() {
		return "", fmt.Errorf("issue token: invalid role %q", role)
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature, expiry and issuer of tokenString and returns its session
func (s *TokenService) Validate(tokenString string) (Session, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrTokenExpired
		}
		return Session{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return Session{}, ErrInvalidToken
	}
	return Session{UserID: claims.UserID, Role: claims.Role}, nil
}

// PeekSession reads the session of a token without verifying it. Clients use it to learn
// their own role; servers must call Validate.
func PeekSession(tokenString string) (Session, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return Session{}, ErrInvalidToken
	}
	return Session{UserID: claims.UserID, Role: claims.Role}, nil
}
