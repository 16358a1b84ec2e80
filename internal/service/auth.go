package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/training-centre-booking/internal/model"
	"github.com/iliyamo/training-centre-booking/internal/repository"
	"github.com/iliyamo/training-centre-booking/internal/utils"
)

// AuthConfig carries the token and password settings of AuthService.
type AuthConfig struct {
	JWTSecret        string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	BcryptCost       int
	AllowAdminSignup bool
}

// AuthService registers users, issues token pairs and turns bearer tokens
// into principals.
type AuthService struct {
	tx       Transactor
	users    UserStore
	tokens   TokenStore
	cfg      AuthConfig
	validate *validator.Validate
	clock    Clock
}

func NewAuthService(tx Transactor, users UserStore, tokens TokenStore, cfg AuthConfig, clock Clock) *AuthService {
	return &AuthService{tx: tx, users: users, tokens: tokens, cfg: cfg, validate: newValidator(), clock: clock}
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"max=32"`
	Country    string `json:"country" validate:"max=100"`
	NationalID string `json:"national_id" validate:"max=64"`
	Role       string `json:"role" validate:"omitempty,oneof=customer admin"`
}

// Session is a user together with a fresh token pair.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// Register creates a user and signs them in. The role defaults to
// customer; admin sign-up must be enabled in the configuration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := check(s.validate, in); err != nil {
		return Session{}, err
	}
	if in.Role == "" {
		in.Role = model.RoleCustomer
	}
	if in.Role == model.RoleAdmin && !s.cfg.AllowAdminSignup {
		return Session{}, repository.ErrForbidden
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return Session{}, err
	}
	u := model.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        strings.TrimSpace(in.Phone),
		Country:      strings.TrimSpace(in.Country),
		Role:         in.Role,
	}
	if nid := strings.TrimSpace(in.NationalID); nid != "" {
		u.NationalID = &nid
	}

	var sess Session
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, &u); err != nil {
			return err
		}
		sess, err = s.issue(ctx, u)
		return err
	})
	if err != nil {
		return Session{}, err
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")
	return sess, nil
}

// Login verifies the credentials and issues a new token pair. An unknown
// email and a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, validationError("email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(ctx, u)
}

// Authenticate turns an access token, with or without its "Bearer "
// prefix, into the caller's principal.
func (s *AuthService) Authenticate(_ context.Context, bearer string) (model.Principal, error) {
	raw := strings.TrimSpace(bearer)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return model.Principal{}, ErrAuthFailure
	}
	claims, err := utils.ParseAccessToken(s.cfg.JWTSecret, raw, s.clock.now())
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return model.Principal{}, ErrTokenExpired
		}
		return model.Principal{}, ErrAuthFailure
	}
	uid, err := claims.UserID()
	if err != nil {
		return model.Principal{}, ErrAuthFailure
	}
	if claims.Role != model.RoleCustomer && claims.Role != model.RoleAdmin {
		return model.Principal{}, ErrAuthFailure
	}
	return model.Principal{UserID: uid, Role: claims.Role}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	hash, err := refreshHash(raw)
	if err != nil {
		return Session{}, err
	}
	var sess Session
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, err := s.refreshOwner(ctx, hash)
		if err != nil {
			return err
		}
		if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
			return err
		}
		sess, err = s.issue(ctx, u)
		return err
	})
	return sess, err
}

// RefreshAccess issues a new access token and keeps the refresh token.
func (s *AuthService) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	hash, err := refreshHash(raw)
	if err != nil {
		return utils.AccessToken{}, err
	}
	u, err := s.refreshOwner(ctx, hash)
	if err != nil {
		return utils.AccessToken{}, err
	}
	return utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTL, s.clock.now())
}

// Logout revokes a single refresh token.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	hash, err := refreshHash(raw)
	if err != nil {
		return err
	}
	if _, err := s.refreshOwner(ctx, hash); err != nil {
		return err
	}
	return s.tokens.RevokeByHash(ctx, hash)
}

// LogoutAll revokes every refresh token of the caller.
func (s *AuthService) LogoutAll(ctx context.Context, p model.Principal) error {
	return s.tokens.RevokeAllForUser(ctx, p.UserID)
}

// Profile loads the caller's user record.
func (s *AuthService) Profile(ctx context.Context, p model.Principal) (model.User, error) {
	return s.users.GetByID(ctx, p.UserID)
}

// PurgeExpiredTokens deletes refresh tokens that expired or were revoked
// before now.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.PurgeExpired(ctx, s.clock.now())
}

func (s *AuthService) issue(ctx context.Context, u model.User) (Session, error) {
	now := s.clock.now()
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTL, now)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTL, now)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

// refreshOwner maps a live refresh token hash to its user.
func (s *AuthService) refreshOwner(ctx context.Context, hash string) (model.User, error) {
	uid, err := s.tokens.ValidateRefresh(ctx, hash, s.clock.now())
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return model.User{}, ErrAuthFailure
		}
		return model.User{}, err
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, ErrAuthFailure
		}
		return model.User{}, err
	}
	return u, nil
}

func refreshHash(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", validationError("refresh_token is required")
	}
	return utils.HashRefreshRaw(raw), nil
}
