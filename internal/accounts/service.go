// Package accounts provides admin account and credential management.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/mursal-app/mursal/internal/db"
)

// Errors returned by account operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
)

// Service provides account (credential) management.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a new accounts service.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "accounts")),
	}
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, userID string) (Account, error) {
	if s.pool == nil {
		return Account{}, errors.New("accounts pool not configured")
	}
	pgID, err := db.ParseUUID(userID)
	if err != nil {
		return Account{}, err
	}
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, role, is_active, created_at, updated_at
		 FROM accounts WHERE id = $1`, pgID)
	return scanAccount(row)
}

// Login authenticates by username and password.
func (s *Service) Login(ctx context.Context, username, password string) (Account, error) {
	if s.pool == nil {
		return Account{}, errors.New("accounts pool not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return Account{}, ErrInvalidCredentials
	}

	var (
		id        pgtype.UUID
		role      string
		isActive  bool
		hash      string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, password_hash, role, is_active, created_at, updated_at
		 FROM accounts WHERE username = $1`, username,
	).Scan(&id, &hash, &role, &isActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if !isActive {
		return Account{}, ErrInactiveAccount
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return Account{
		ID:        db.UUIDToString(id),
		Username:  username,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: db.TimeFromPg(createdAt),
		UpdatedAt: db.TimeFromPg(updatedAt),
	}, nil
}

// EnsureAdmin creates the configured admin account if it does not exist yet.
// An existing account is left untouched (including its password).
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if s.pool == nil {
		return errors.New("accounts pool not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return errors.New("admin username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (username, password_hash, role)
		 VALUES ($1, $2, 'admin')
		 ON CONFLICT (username) DO NOTHING`, username, string(hash))
	if err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}
	if tag.RowsAffected() > 0 {
		s.logger.Info("admin account created", slog.String("username", username))
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		id        pgtype.UUID
		username  string
		role      string
		isActive  bool
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &username, &role, &isActive, &createdAt, &updatedAt); err != nil {
		return Account{}, err
	}
	return Account{
		ID:        db.UUIDToString(id),
		Username:  username,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: db.TimeFromPg(createdAt),
		UpdatedAt: db.TimeFromPg(updatedAt),
	}, nil
}
