// Package credential mints and verifies the access and refresh tokens used by the API.
//
// Access tokens are short lived and carry only the user id. Refresh tokens also carry the
// user's credential version; rotating a refresh token bumps the stored version so every
// previously issued refresh token stops working.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sushihentaime/blogsphere/internal/common"
)

const (
	AccessTokenTTL    = 15 * time.Minute
	RefreshTokenTTL   = 7 * 24 * time.Hour
	RefreshCookieName = "refresh_token"

	issuer = "blogsphere"
)

var (
	// ErrExpiredCredential keeps the message clients already match on.
	ErrExpiredCredential = errors.New("jwt expired")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrVersionMismatch   = errors.New("refresh credential has been superseded")
)

type AccessClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID  int64 `json:"userId"`
	Version int   `json:"version"`
	jwt.RegisteredClaims
}

// Pair is the result of a sign-in or a rotation.
type Pair struct {
	AccessToken  string
	RefreshToken string
	Version      int
}

// VersionStore persists the per-user credential version.
//
// IncrementVersion must bump the version only when it still equals expected and the user
// has not signed in after issuedAt, in a single atomic write. It returns ErrVersionMismatch
// when the user exists but the precondition fails and common.ErrRecordNotFound when the
// user is gone.
type VersionStore interface {
	IncrementVersion(ctx context.Context, userID int64, expected int, issuedAt time.Time) (int, error)
}

type Store struct {
	accessSecret  []byte
	refreshSecret []byte
	versions      VersionStore
	now           func() time.Time
}

func New(accessSecret, refreshSecret string, versions VersionStore) (*Store, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("credential: access and refresh secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("credential: access and refresh secrets must differ")
	}

	return &Store{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		versions:      versions,
		now:           time.Now,
	}, nil
}

func (s *Store) registered(userID int64, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Store) IssueAccess(userID int64) (string, error) {
	claims := AccessClaims{
		UserID:           userID,
		RegisteredClaims: s.registered(userID, AccessTokenTTL),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return token, nil
}

func (s *Store) IssueRefresh(userID int64, version int) (string, error) {
	claims := RefreshClaims{
		UserID:           userID,
		Version:          version,
		RegisteredClaims: s.registered(userID, RefreshTokenTTL),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	return token, nil
}

// IssuePair mints both tokens for a user whose stored version is already version.
func (s *Store) IssuePair(userID int64, version int) (*Pair, error) {
	access, err := s.IssueAccess(userID)
	if err != nil {
		return nil, err
	}

	refresh, err := s.IssueRefresh(userID, version)
	if err != nil {
		return nil, err
	}

	return &Pair{AccessToken: access, RefreshToken: refresh, Version: version}, nil
}

func (s *Store) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, claims, s.accessSecret); err != nil {
		return nil, err
	}

	if claims.UserID <= 0 {
		return nil, ErrInvalidCredential
	}

	return claims, nil
}

func (s *Store) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(token, claims, s.refreshSecret); err != nil {
		return nil, err
	}

	if claims.UserID <= 0 || claims.Version < 0 || claims.IssuedAt == nil {
		return nil, ErrInvalidCredential
	}

	return claims, nil
}

func (s *Store) parse(token string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredCredential
	default:
		return ErrInvalidCredential
	}
}

// Rotate exchanges a refresh token for a new pair. The new version is stored before the
// new refresh token is minted, so a failed write never yields a usable token and the
// presented token can not be replayed.
func (s *Store) Rotate(ctx context.Context, refreshToken string) (*Pair, error) {
	claims, err := s.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	version, err := s.versions.IncrementVersion(ctx, claims.UserID, claims.Version, claims.IssuedAt.Time)
	if err != nil {
		switch {
		case errors.Is(err, ErrVersionMismatch):
			return nil, ErrVersionMismatch
		case errors.Is(err, common.ErrRecordNotFound):
			return nil, ErrInvalidCredential
		default:
			return nil, common.WrapStorage("rotate refresh credential", err)
		}
	}

	return s.IssuePair(claims.UserID, version)
}
