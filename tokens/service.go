// Package tokens mints and verifies access and refresh JWTs and keeps
// track of the single live refresh token each user may hold.
//
// Issuing a new pair overwrites the stored refresh token, so any earlier
// refresh token stops rotating immediately. Access tokens already handed
// out stay valid until they expire: they are bearer credentials and are
// never looked up server-side.
package tokens

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/authdiscovery/apiv1/dbhelper"
	"github.com/authdiscovery/apiv1/utils"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

type Claims struct {
	UserID    string `json:"_id"`
	TokenType string `json:"tokenType"`
	jwt.StandardClaims
}

type Pair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type Config struct {
	AccessKeys  utils.SigningKeys
	RefreshKeys utils.SigningKeys
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

type Service struct {
	store dbhelper.UserStore
	cfg   Config
	now   func() time.Time
}

func NewService(store dbhelper.UserStore, cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = utils.ACCESS_TOKEN_DURATION
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = utils.REFRESH_TOKEN_DURATION
	}
	return &Service{store: store, cfg: cfg, now: time.Now}
}

func (s *Service) AccessTTL() time.Duration  { return s.cfg.AccessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }

// IssuePair mints a token pair for userID and makes the new refresh token
// the only one that Rotate will accept.
func (s *Service) IssuePair(ctx context.Context, userID string) (Pair, error) {
	if _, err := s.store.FindByID(ctx, userID); err != nil {
		return Pair{}, storeError(err)
	}
	var pair Pair
	var err error
	pair.AccessToken, pair.AccessExpiresAt, err = s.mint(userID, utils.ACCESS_TYPE, s.cfg.AccessKeys.Current, s.cfg.AccessTTL)
	if err != nil {
		return Pair{}, utils.WrapError(utils.KindInternal, utils.GENERIC_TOKEN_ERROR, err)
	}
	pair.RefreshToken, pair.RefreshExpiresAt, err = s.mint(userID, utils.REFRESH_TYPE, s.cfg.RefreshKeys.Current, s.cfg.RefreshTTL)
	if err != nil {
		return Pair{}, utils.WrapError(utils.KindInternal, utils.GENERIC_TOKEN_ERROR, err)
	}
	hash := utils.HashToken(pair.RefreshToken)
	if err := s.store.SetRefreshTokenHash(ctx, userID, &hash); err != nil {
		return Pair{}, storeError(err)
	}
	return pair, nil
}

func (s *Service) VerifyAccess(token string) (*Claims, error) {
	if token == "" {
		return nil, utils.NewError(utils.KindUnauthorized, utils.UNAUTHORIZED_REQUEST)
	}
	claims, err := verify(token, utils.ACCESS_TYPE, s.cfg.AccessKeys)
	if err != nil {
		return nil, utils.WrapError(utils.KindUnauthorized, utils.INVALID_ACCESS_TOKEN, err)
	}
	return claims, nil
}

func (s *Service) VerifyRefresh(token string) (*Claims, error) {
	if token == "" {
		return nil, utils.NewError(utils.KindUnauthorized, utils.REFRESH_TOKEN_REQUIRED)
	}
	claims, err := verify(token, utils.REFRESH_TYPE, s.cfg.RefreshKeys)
	if err != nil {
		return nil, utils.WrapError(utils.KindUnauthorized, utils.INVALID_REFRESH_TOKEN, err)
	}
	return claims, nil
}

// Rotate exchanges a live refresh token for a new access token. The stored
// refresh token is left as it is.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	user, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, dbhelper.ErrUserNotFound) {
			return "", utils.WrapError(utils.KindUnauthorized, utils.INVALID_REFRESH_TOKEN, err)
		}
		return "", storeError(err)
	}
	if user.RefreshTokenHash == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshTokenHash), []byte(utils.HashToken(refreshToken))) != 1 {
		return "", utils.NewError(utils.KindUnauthorized, utils.REFRESH_TOKEN_SUPERSEDED)
	}
	accessToken, _, err := s.mint(user.ID, utils.ACCESS_TYPE, s.cfg.AccessKeys.Current, s.cfg.AccessTTL)
	if err != nil {
		return "", utils.WrapError(utils.KindInternal, utils.GENERIC_TOKEN_ERROR, err)
	}
	return accessToken, nil
}

// Revoke forgets the user's refresh token.
func (s *Service) Revoke(ctx context.Context, userID string) error {
	if err := s.store.SetRefreshTokenHash(ctx, userID, nil); err != nil {
		return storeError(err)
	}
	return nil
}

func (s *Service) mint(userID, tokenType string, key []byte, ttl time.Duration) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(ttl)
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}
	token, err := utils.CreateJWTToken(claims, key)
	return token, expiresAt, err
}

func verify(token, tokenType string, keys utils.SigningKeys) (*Claims, error) {
	claims := &Claims{}
	if err := utils.VerifyJWTToken(token, keys, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType || claims.UserID == "" {
		return nil, errors.New(utils.JWT_WRONG_TOKEN_TYPE)
	}
	return claims, nil
}

func storeError(err error) error {
	if errors.Is(err, dbhelper.ErrUserNotFound) {
		return utils.WrapError(utils.KindNotFound, utils.USER_NOT_FOUND, err)
	}
	return utils.WrapError(utils.KindInternal, utils.GENERIC_TOKEN_ERROR, err)
}
