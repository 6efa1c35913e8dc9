// Package services contains server-side business logic. Services own the
// transaction boundaries and translate repository failures into the error
// taxonomy of package common.
package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/dbx"
	"github.com/dmitrijs2005/bookshelf/internal/server/models"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// bcrypt ignores input past 72 bytes; longer passwords are rejected.
const maxPasswordLen = 72

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type UpdateProfileInput struct {
	Name  string
	Email string
}

// UserService implements the credential store operations and the profile
// endpoints built on top of it.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenIssuer
	cost        int
	dummyHash   []byte
	newID       func() string
}

// NewUserService constructs a UserService. Costs outside bcrypt's range fall
// back to bcrypt.DefaultCost.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer, cost int) *UserService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Compared against when the email is unknown, so both paths pay for one
	// bcrypt comparison.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("bookshelf-placeholder-password"), cost)
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		cost:        cost,
		dummyHash:   dummy,
		newID:       func() string { return uuid.NewString() },
	}
}

// Register creates a user and returns it together with a fresh session token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	name, email, err := validateIdentity(in.Name, in.Email)
	if err != nil {
		return nil, "", err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, "", errors.Join(common.ErrInternal, err)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, &models.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, "", classify("create user", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", errors.Join(common.ErrInternal, err)
	}
	return user, token, nil
}

// Authenticate verifies email and password and issues a session token.
// Unknown email, missing stored hash and wrong password are all reported as
// common.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, "", common.NewValidationError("email", "is required")
	}
	if password == "" {
		return nil, "", common.NewValidationError("password", "is required")
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, "", common.ErrInvalidCredentials
		}
		return nil, "", classify("find user", err)
	}
	if len(user.PasswordHash) == 0 {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, "", common.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", errors.Join(common.ErrInternal, err)
	}
	return user, token, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		return nil, classify("get user", err)
	}
	return user, nil
}

// UpdateProfile changes name and email. An email owned by another user is
// common.ErrDuplicateUser.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error) {
	name, email, err := validateIdentity(in.Name, in.Email)
	if err != nil {
		return nil, err
	}
	user, err := s.repomanager.Users(s.db).Update(ctx, &models.User{ID: userID, Name: name, Email: email})
	if err != nil {
		return nil, classify("update user", err)
	}
	return user, nil
}

// DeleteAccount removes the user with its purchases and cart in one
// transaction.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Purchases(tx).DeleteAll(ctx, userID); err != nil {
			return classify("delete purchases", err)
		}
		if _, err := s.repomanager.CartItems(tx).DeleteAll(ctx, userID); err != nil {
			return classify("clear cart", err)
		}
		if err := s.repomanager.Users(tx).Delete(ctx, userID); err != nil {
			return classify("delete user", err)
		}
		return nil
	})
	if err != nil {
		return classify("delete account", err)
	}
	return nil
}

func validateIdentity(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return "", "", common.NewValidationError("name", "is required")
	}
	if email == "" {
		return "", "", common.NewValidationError("email", "is required")
	}
	if !emailPattern.MatchString(email) {
		return "", "", common.NewValidationError("email", "invalid format")
	}
	return name, email, nil
}

func validatePassword(password string) error {
	if password == "" {
		return common.NewValidationError("password", "is required")
	}
	if len(password) > maxPasswordLen {
		return common.NewValidationError("password", "must be at most 72 bytes")
	}
	return nil
}

// classify keeps taxonomy errors as they are and turns anything else into
// common.ErrStorage.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, common.ErrStorage),
		errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrDuplicateUser),
		errors.Is(err, common.ErrEmptyCart),
		errors.Is(err, common.ErrValidation):
		return err
	default:
		return common.StorageError(op, err)
	}
}
