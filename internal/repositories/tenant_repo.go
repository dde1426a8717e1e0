package repositories

import (
	"context"
	"errors"

	"clawe/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ConnectionUpdate carries the provisioner's output for persisting onto a
// tenant. Metadata fields are optional; nil means "leave the stored value
// alone", not "clear it".
type ConnectionUpdate struct {
	SquadhubURL        string
	SquadhubToken      string
	SquadhubServiceARN *string
	EFSAccessPointID   *string
}

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	// GetByAccountID returns (nil, nil) when the account has no tenant yet.
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Tenant, error)
	// UpdateConnection marks the tenant active and persists connection
	// details. Sparse on metadata: absent fields keep their stored values.
	UpdateConnection(ctx context.Context, id uuid.UUID, update ConnectionUpdate) error
}

type tenantRepo struct {
	db Database
}

func NewTenantRepo(db Database) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, account_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, tenant.ID, tenant.AccountID, tenant.Status)
	return err
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, account_id, status, squadhub_url, squadhub_token,
		       squadhub_service_arn, efs_access_point_id, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&tenant.ID, &tenant.AccountID, &tenant.Status,
		&tenant.SquadhubURL, &tenant.SquadhubToken,
		&tenant.SquadhubServiceARN, &tenant.EFSAccessPointID,
		&tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, account_id, status, squadhub_url, squadhub_token,
		       squadhub_service_arn, efs_access_point_id, created_at, updated_at
		FROM tenants
		WHERE account_id = $1
	`
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&tenant.ID, &tenant.AccountID, &tenant.Status,
		&tenant.SquadhubURL, &tenant.SquadhubToken,
		&tenant.SquadhubServiceARN, &tenant.EFSAccessPointID,
		&tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) UpdateConnection(ctx context.Context, id uuid.UUID, update ConnectionUpdate) error {
	query := `
		UPDATE tenants
		SET status = 'active',
		    squadhub_url = $1,
		    squadhub_token = $2,
		    squadhub_service_arn = COALESCE($3, squadhub_service_arn),
		    efs_access_point_id = COALESCE($4, efs_access_point_id),
		    updated_at = NOW()
		WHERE id = $5
	`
	_, err := r.db.Exec(ctx, query,
		update.SquadhubURL, update.SquadhubToken,
		update.SquadhubServiceARN, update.EFSAccessPointID, id)
	return err
}
