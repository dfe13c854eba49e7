package repository

import (
	"context"
	"fmt"
	"songshop/internal/models"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUsername(ctx context.Context, id, username string) error
	UpdateRole(ctx context.Context, id string, isStaff bool) error
}

type userRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
	INSERT INTO users (id, username, is_staff, is_superuser, date_joined)
	VALUES ($1, $2, $3, $4, $5)
	`

	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now()
	}

	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.IsStaff, user.IsSuperuser, user.DateJoined,
	)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.ID, mapError(err))
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
	SELECT id, username, is_staff, is_superuser, date_joined
	FROM users
	WHERE id = $1
	`

	user := &models.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.IsStaff, &user.IsSuperuser, &user.DateJoined,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, mapError(err))
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
	SELECT id, username, is_staff, is_superuser, date_joined
	FROM users
	WHERE username = $1
	ORDER BY date_joined
	LIMIT 1
	`

	user := &models.User{}
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.IsStaff, &user.IsSuperuser, &user.DateJoined,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user @%s: %w", username, mapError(err))
	}
	return user, nil
}

func (r *userRepository) UpdateUsername(ctx context.Context, id, username string) error {
	query := `
	UPDATE users
	SET username = $2
	WHERE id = $1 AND username != $2
	`

	if _, err := r.db.Exec(ctx, query, id, username); err != nil {
		return fmt.Errorf("failed to update username for %s: %w", id, err)
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, isStaff bool) error {
	tag, err := r.db.Exec(ctx, "UPDATE users SET is_staff = $2 WHERE id = $1", id, isStaff)
	if err != nil {
		return fmt.Errorf("failed to update role for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update role for %s: %w", id, ErrNotFound)
	}
	return nil
}
