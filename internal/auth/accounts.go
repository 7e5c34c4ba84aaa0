package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/roomly/roomly/internal/user"
	"github.com/roomly/roomly/internal/validate"
)

// ErrInvalidCredentials is returned when an email and password do not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Users is the account storage the auth flows need.
type Users interface {
	Insert(u *user.User) (*user.User, error)
	GetByID(id string) (*user.User, error)
	GetByEmail(email string) (*user.User, error)
}

// Accounts runs sign-up and sign-in.
type Accounts struct {
	users  Users
	tokens *Tokens
	cost   int
}

// NewAccounts creates the account flows.
func NewAccounts(users Users, tokens *Tokens) *Accounts {
	return &Accounts{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

// SignUpRequest is the sign-up form.
type SignUpRequest struct {
	Name                 string `json:"name" validate:"required,max=100"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 string `json:"role" validate:"required,oneof=tenant landlord"`
}

// SignUp validates the form and creates the account.
func (a *Accounts) SignUp(req SignUpRequest) (*user.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u, err := a.users.Insert(&user.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         user.Role(req.Role),
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user signed up", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// SignInRequest is the sign-in form.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is a successful sign-in.
type Session struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// SignIn checks the credentials and issues a token.
func (a *Accounts) SignIn(req SignInRequest) (*Session, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	u, err := a.users.GetByEmail(req.Email)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, _, err := a.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

// Authenticate resolves a bearer token to its user.
func (a *Accounts) Authenticate(token string) (*user.User, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := a.users.GetByID(claims.Subject)
	if errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown user", ErrInvalidToken)
	}
	return u, err
}
