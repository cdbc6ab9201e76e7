// user.go — репозиторий users: разрешение subject из JWT во внутреннюю
// запись пользователя (id, ведомство).
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/balliscan/matching-module/internal/domain/model"
)

// UserRepository — интерфейс доступа к users.
type UserRepository interface {
	// GetBySubject возвращает пользователя по sub из JWT или ErrNotFound.
	GetBySubject(ctx context.Context, subject string) (*model.User, error)
}

// userRepo — реализация UserRepository через pgx.
type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// GetBySubject возвращает пользователя по sub из JWT.
func (r *userRepo) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	query := `
		SELECT id, subject, username, email, agency
		FROM users
		WHERE subject = $1`

	u := &model.User{}
	err := r.db.QueryRow(ctx, query, subject).Scan(&u.ID, &u.Subject, &u.Username, &u.Email, &u.Agency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}
