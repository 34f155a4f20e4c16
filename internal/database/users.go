package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID        string
	Username  string
	Password  string // bcrypt hash
	Role      string
	CreatedAt time.Time
}

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func (s *UserStore) Create(ctx context.Context, username, passwordHash, role string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, password, role, created_at`,
		uuid.New().String(), username, passwordHash, role,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt)
	return u, err
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password, role, created_at
		FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt)
	return u, err
}
