package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/store"
	"github.com/dukemzone/kpi-portal/pkg/jwt"
	"github.com/dukemzone/kpi-portal/pkg/validator"
)

// legacyDefaultSecret is accepted for every account that has never stored a passcode
const legacyDefaultSecret = "1234"

// AuthOptions configures the login flow
type AuthOptions struct {
	LoginDelay          time.Duration
	AllowLegacyDefaults bool
	BcryptCost          int
}

// TokenPair is returned on login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthService handles login, passcodes and tokens.
//
// A user is in one of two credential states. Without a stored credential only
// the legacy defaults are accepted (when enabled); once a passcode is stored
// only its bcrypt hash is.
type AuthService struct {
	users     UserStore
	tokens    *jwt.Service
	validator *validator.AccountValidator
	opts      AuthOptions
	logger    logrus.FieldLogger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens *jwt.Service, opts AuthOptions, logger logrus.FieldLogger) *AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		validator: validator.NewAccountValidator(),
		opts:      opts,
		logger:    logger,
	}
}

// Login checks a username and secret after the configured delay
func (s *AuthService) Login(ctx context.Context, username, secret string) (*models.User, error) {
	if s.opts.LoginDelay > 0 {
		timer := time.NewTimer(s.opts.LoginDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	user, err := s.users.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.verifySecret(user, secret)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.WithField("user_id", user.ID).Info("Login rejected")
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// verifySecret applies the credential state machine
func (s *AuthService) verifySecret(user *models.User, secret string) (bool, error) {
	cred, err := s.users.GetCredential(user.ID)
	switch {
	case err == nil:
		return bcrypt.CompareHashAndPassword([]byte(cred.Hash), []byte(secret)) == nil, nil
	case errors.Is(err, store.ErrNotFound):
		if !s.opts.AllowLegacyDefaults {
			return false, nil
		}
		return secret == legacyDefaultSecret || secret == user.Username+"123", nil
	default:
		return false, fmt.Errorf("failed to load credential: %w", err)
	}
}

// SetPasscode stores the first passcode of a user
func (s *AuthService) SetPasscode(ctx context.Context, userID, passcode, confirm string) error {
	if _, err := s.users.GetCredential(userID); err == nil {
		return fmt.Errorf("%w: passcode already set, use change secret", ErrConflict)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to load credential: %w", err)
	}

	if err := s.validator.PasscodeWithConfirmation(passcode, confirm); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return s.store(ctx, userID, passcode)
}

// AssignPasscode stores a passcode for a user regardless of their credential state.
// It is the operator path for bootstrapping accounts when legacy defaults are disabled
// and for resetting a forgotten passcode.
func (s *AuthService) AssignPasscode(ctx context.Context, userID, passcode string) error {
	if _, err := s.users.GetUser(userID); err != nil {
		return err
	}
	if err := s.validator.Passcode(passcode); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.store(ctx, userID, passcode)
}

// ChangeSecret replaces the passcode after verifying the old one.
// It returns false without error when the old secret does not match.
func (s *AuthService) ChangeSecret(ctx context.Context, userID, oldSecret, newSecret string) (bool, error) {
	user, err := s.users.GetUser(userID)
	if err != nil {
		return false, err
	}

	ok, err := s.verifySecret(user, oldSecret)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := s.validator.Passcode(newSecret); err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.store(ctx, userID, newSecret); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) store(ctx context.Context, userID, passcode string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash passcode: %w", err)
	}

	if err := s.users.SetCredential(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to store passcode: %w", err)
	}

	s.logger.WithField("user_id", userID).Info("Passcode stored")
	return nil
}

// AcceptAgreement records that the user accepted the usage agreement
func (s *AuthService) AcceptAgreement(ctx context.Context, userID string) (*models.User, error) {
	return s.users.UpdateUser(ctx, userID, func(u *models.User) error {
		u.AgreementAccepted = true
		return nil
	})
}

// LinkEmail stores a recovery email for the user
func (s *AuthService) LinkEmail(ctx context.Context, userID, recoveryEmail string) (*models.User, error) {
	email, err := s.validator.RecoveryEmail(recoveryEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return s.users.UpdateUser(ctx, userID, func(u *models.User) error {
		u.RecoveryEmail = email
		u.EmailLinked = true
		return nil
	})
}

// IssueTokens creates an access/refresh token pair for the user
func (s *AuthService) IssueTokens(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTokenExpiry().Seconds()),
	}, nil
}

// Refresh validates a refresh token and issues a new pair with the user's current role
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, *models.User, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	user, err := s.users.GetUser(claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	pair, err := s.IssueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}
