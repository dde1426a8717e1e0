package repositories

import (
	"context"

	"clawe/internal/models"

	"github.com/google/uuid"
)

type AccountRepository interface {
	// GetOrCreateBySubject is the idempotent upsert keyed by identity:
	// the first call creates the account, every later call returns it.
	GetOrCreateBySubject(ctx context.Context, subject string) (*models.Account, error)
	GetBySubject(ctx context.Context, subject string) (*models.Account, error)
}

type accountRepo struct {
	db Database
}

func NewAccountRepo(db Database) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) GetOrCreateBySubject(ctx context.Context, subject string) (*models.Account, error) {
	account := &models.Account{}
	// The no-op DO UPDATE makes RETURNING yield the row on conflict as well.
	query := `
		INSERT INTO accounts (id, subject, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (subject) DO UPDATE SET updated_at = NOW()
		RETURNING id, subject, email, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, uuid.New(), subject).
		Scan(&account.ID, &account.Subject, &account.Email, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *accountRepo) GetBySubject(ctx context.Context, subject string) (*models.Account, error) {
	account := &models.Account{}
	query := `
		SELECT id, subject, email, created_at, updated_at
		FROM accounts
		WHERE subject = $1
	`
	err := r.db.QueryRow(ctx, query, subject).
		Scan(&account.ID, &account.Subject, &account.Email, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return account, nil
}
