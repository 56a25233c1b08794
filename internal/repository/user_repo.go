package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"autorent/internal/db"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(database *sql.DB) *UserRepository {
	return &UserRepository{DB: database}
}

func (r *UserRepository) CreateUser(u *db.User) error {
	query := `
		INSERT INTO users (full_name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.DB.QueryRow(query, u.FullName, u.Email, u.Phone, u.PasswordHash, u.Role).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(email string) (*db.User, error) {
	var u db.User
	query := `SELECT id, full_name, email, phone, password_hash, role, created_at FROM users WHERE email = $1`
	err := r.DB.QueryRow(query, email).Scan(
		&u.ID, &u.FullName, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying user by email: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetUserByID(id string) (*db.User, error) {
	var u db.User
	query := `SELECT id, full_name, email, phone, password_hash, role, created_at FROM users WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(
		&u.ID, &u.FullName, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying user %s: %w", id, err)
	}
	return &u, nil
}
