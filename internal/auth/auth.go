// Package auth implements signup, login and password management on top
// of the account store, and hands out token pairs via the issuer.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/friendlog/friendlog/internal/model"
	"github.com/friendlog/friendlog/internal/store"
	"github.com/friendlog/friendlog/internal/token"
)

var (
	// ErrUnauthorized is deliberately opaque: login never reveals
	// whether the email exists or the password was wrong.
	ErrUnauthorized = errors.New("invalid email or password")
	ErrEmailTaken   = errors.New("email already registered")
)

// ValidationError reports a rejected signup or password-change field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

const minPasswordLen = 6

// TokenPair is what a successful signup, login or refresh returns.
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

type Service struct {
	store  store.AccountStore
	issuer *token.Issuer
	cost   int
}

func NewService(st store.AccountStore, issuer *token.Issuer, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: st, issuer: issuer, cost: bcryptCost}
}

// SignupParams carries the raw signup form. EmailConfirm must match
// Email exactly.
type SignupParams struct {
	Name         string
	Email        string
	EmailConfirm string
	Password     string
	Location     string
	Bio          string
}

func (s *Service) Signup(ctx context.Context, p SignupParams) (model.Account, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	p.EmailConfirm = strings.TrimSpace(strings.ToLower(p.EmailConfirm))

	if p.Name == "" {
		return model.Account{}, &ValidationError{Field: "name", Msg: "required"}
	}
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return model.Account{}, &ValidationError{Field: "email", Msg: "invalid"}
	}
	if p.Email != p.EmailConfirm {
		return model.Account{}, &ValidationError{Field: "email_confirm", Msg: "does not match email"}
	}
	if len(p.Password) < minPasswordLen {
		return model.Account{}, &ValidationError{Field: "password", Msg: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost)
	if err != nil {
		return model.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	account := model.Account{
		ID:           uuid.NewString(),
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: string(hash),
		Location:     strings.TrimSpace(p.Location),
		Bio:          strings.TrimSpace(p.Bio),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAccount(ctx, &account); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return model.Account{}, ErrEmailTaken
		}
		return model.Account{}, err
	}
	return account, nil
}

// Login checks the credentials and returns the matching account. Any
// failure, lookup or password, collapses to ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (model.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	account, err := s.store.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Account{}, ErrUnauthorized
		}
		return model.Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return model.Account{}, ErrUnauthorized
	}
	return account, nil
}

// IssuePair mints a fresh access/refresh pair for the account. Refresh
// rotates both tokens; the old refresh token stays valid until its own
// expiry since nothing is tracked server-side.
func (s *Service) IssuePair(accountID string) (TokenPair, error) {
	access, err := s.issuer.Access(accountID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.issuer.Refresh(accountID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new pair. The account must
// still exist: deleting an account is the only way to cut off its
// refresh chain.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	accountID, err := s.issuer.Verify(refreshToken, token.ClassRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, token.ErrInvalid
		}
		return TokenPair{}, err
	}
	return s.IssuePair(accountID)
}

// ChangePassword verifies the current password before setting the new
// one. Existing tokens remain valid; there is no revocation.
func (s *Service) ChangePassword(ctx context.Context, accountID, current, next string) error {
	if len(next) < minPasswordLen {
		return &ValidationError{Field: "new_password", Msg: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(current)); err != nil {
		return ErrUnauthorized
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdateAccountPassword(ctx, accountID, string(hash))
}
