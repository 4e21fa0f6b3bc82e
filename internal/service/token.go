package service

import (
	"errors"
	"strings"
	"time"

	"tasker/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("no authentication token found")
	ErrMalformedToken = errors.New("invalid token format")
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidClaims  = errors.New("invalid token claims")
	ErrInvalidToken   = errors.New("invalid token")
)

// DefaultTokenTTL matches the session cookie lifetime.
const DefaultTokenTTL = time.Hour

// Claims is the session token payload: the registered sub/aud/exp/iat set
// plus the user's email and display name.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints HS256 session tokens.
type TokenIssuer struct {
	secret   []byte
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenIssuer(secret, audience string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), audience: audience, ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// VerifyOptions returns the options that check tokens minted by i.
func (i *TokenIssuer) VerifyOptions() VerifyOptions {
	return VerifyOptions{Key: i.secret, Audience: i.audience}
}

// Issue returns a signed token for u and its expiry.
func (i *TokenIssuer) Issue(u *domain.User) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Email: u.Email,
		Name:  u.Name(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Audience:  jwt.ClaimStrings{i.audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	return s, exp, err
}

// VerifyOptions controls VerifySessionToken. Without a Key the signature is
// not checked and the token's issuer is trusted.
type VerifyOptions struct {
	Key      []byte
	Audience string
}

// Session is the identity carried by a valid session token.
type Session struct {
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// VerifySessionToken checks a session cookie value: three dot-separated
// segments, a decodable payload, exp not before now, and both sub and aud
// present.
func VerifySessionToken(token string, now time.Time, opts VerifyOptions) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if strings.Count(token, ".") != 2 {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	if len(opts.Key) > 0 {
		popts := []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(func() time.Time { return now }),
		}
		if opts.Audience != "" {
			popts = append(popts, jwt.WithAudience(opts.Audience))
		}
		_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return opts.Key, nil
		}, popts...)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, ErrInvalidClaims
		case err != nil:
			return nil, ErrInvalidToken
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, ErrMalformedToken
		}
		// exp is compared at second precision, like the claim itself.
		if claims.ExpiresAt != nil && claims.ExpiresAt.Unix() < now.Unix() {
			return nil, ErrTokenExpired
		}
	}

	if claims.Subject == "" || len(claims.Audience) == 0 {
		return nil, ErrInvalidClaims
	}

	s := &Session{UserID: claims.Subject, Email: claims.Email, Name: claims.Name}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
