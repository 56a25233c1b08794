package service

import (
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"

	"autorent/internal/auth"
	"autorent/internal/db"
	"autorent/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthUserRepo is the account storage the auth flow needs.
type AuthUserRepo interface {
	CreateUser(u *db.User) error
	GetUserByEmail(email string) (*db.User, error)
}

type AuthService interface {
	Register(fullName, email, phone, password string) (string, error)
	Login(email, password string) (string, error)
}

type authService struct {
	repo   AuthUserRepo
	tokens *auth.TokenService
}

func NewAuthService(repo AuthUserRepo, tokens *auth.TokenService) AuthService {
	return &authService{repo: repo, tokens: tokens}
}

// Register creates a customer account and returns a bearer token.
func (s *authService) Register(fullName, email, phone, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := &db.User{
		FullName:     fullName,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         auth.RoleCustomer,
	}
	if err := s.repo.CreateUser(user); err != nil {
		return "", err
	}
	return s.tokens.Issue(user.ID, user.Role)
}

// Login verifies credentials and returns a bearer token carrying the role claim.
func (s *authService) Login(email, password string) (string, error) {
	user, err := s.repo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	role := user.Role
	if role != auth.RoleCustomer && role != auth.RoleAdmin {
		log.Printf("User %s has unrecognized role %q, issuing customer token", user.ID, role)
		role = auth.RoleCustomer
	}
	return s.tokens.Issue(user.ID, role)
}
