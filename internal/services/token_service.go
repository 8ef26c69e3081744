package services

import (
	"errors"
	"fmt"
	"time"

	"katalog/internal/models"

	"github.com/dgrijalva/jwt-go"
)

// TokenTTL is the lifetime of every issued token.
const TokenTTL = 30 * 24 * time.Hour

// Claims is the payload of an identity token.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.StandardClaims
}

// Identity is a verified token subject. Role is the role whose secret
// validated the signature.
type Identity struct {
	ID   string
	Role string
}

type roleSecret struct {
	role   string
	secret []byte
}

// TokenService issues and verifies role-signed identity tokens.
type TokenService struct {
	candidates []roleSecret
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService. Verification tries the user secret
// first, then the admin secret.
func NewTokenService(userSecret, adminSecret string) *TokenService {
	return &TokenService{
		candidates: []roleSecret{
			{role: models.RoleUser, secret: []byte(userSecret)},
			{role: models.RoleAdmin, secret: []byte(adminSecret)},
		},
		ttl: TokenTTL,
		now: time.Now,
	}
}

// WithClock replaces the time source used for issuing and for expiry checks.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue signs a token for userID with the secret of role.
func (s *TokenService) Issue(userID, role string) (string, error) {
	secret, err := s.secretFor(role)
	if err != nil {
		return "", err
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:   userID,
		Role: role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	})
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// Verify checks tokenString against each role secret in order and returns
// the identity of the first one whose signature matches. Time claims are
// checked against the service clock.
func (s *TokenService) Verify(tokenString string) (*Identity, error) {
	for _, c := range s.candidates {
		claims, err := s.parse(tokenString, c.secret)
		if err != nil {
			var vErr *jwt.ValidationError
			if !errors.As(err, &vErr) {
				return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
			}
			if vErr.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorUnverifiable) != 0 {
				continue
			}
			if vErr.Errors&jwt.ValidationErrorMalformed != 0 {
				return nil, fmt.Errorf("%w: malformed token", ErrInvalidSignature)
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		if err := s.checkTime(claims); err != nil {
			return nil, err
		}
		return &Identity{ID: claims.ID, Role: c.role}, nil
	}
	return nil, ErrInvalidSignature
}

// parse verifies the signature only. Time claims are left to checkTime.
func (s *TokenService) parse(tokenString string, secret []byte) (*Claims, error) {
	parser := &jwt.Parser{SkipClaimsValidation: true}
	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidSignature)
	}
	return claims, nil
}

func (s *TokenService) checkTime(claims *Claims) error {
	now := s.now().Unix()
	if !claims.VerifyExpiresAt(now, false) {
		return ErrTokenExpired
	}
	if !claims.VerifyIssuedAt(now, false) || !claims.VerifyNotBefore(now, false) {
		return fmt.Errorf("%w: token used before issued", ErrInvalidSignature)
	}
	return nil
}

func (s *TokenService) secretFor(role string) ([]byte, error) {
	for _, c := range s.candidates {
		if c.role == role {
			return c.secret, nil
		}
	}
	return nil, fmt.Errorf("unknown role %q", role)
}
