package services

import (
	"context"
	"fmt"

	"clawe/internal/models"
	"clawe/internal/provision"
	"clawe/internal/repositories"

	"github.com/google/uuid"
)

// ProvisionResult is the provisioning endpoint's success payload. OK is
// false when setup reported non-fatal errors; the call itself still
// completed.
type ProvisionResult struct {
	OK       bool            `json:"ok"`
	TenantID uuid.UUID       `json:"tenantId"`
	Agents   CategoryOutcome `json:"agents"`
	Crons    CategoryOutcome `json:"crons"`
	Routines CategoryOutcome `json:"routines"`
	Errors   []string        `json:"errors,omitempty"`
}

// ProvisionService ensures the caller's account has a provisioned, active
// tenant and re-runs per-tenant setup. Idempotent: repeat calls converge
// on the same tenant and never invoke the provisioner again once the
// tenant is active.
type ProvisionService interface {
	Provision(ctx context.Context, subject, authToken string) (*ProvisionResult, error)
}

type provisionService struct {
	accountRepo repositories.AccountRepository
	tenantRepo  repositories.TenantRepository
	registry    *provision.Registry
	setup       TenantSetup
	backendURL  string
}

func NewProvisionService(
	accountRepo repositories.AccountRepository,
	tenantRepo repositories.TenantRepository,
	registry *provision.Registry,
	setup TenantSetup,
	backendURL string,
) ProvisionService {
	return &provisionService{
		accountRepo: accountRepo,
		tenantRepo:  tenantRepo,
		registry:    registry,
		setup:       setup,
		backendURL:  backendURL,
	}
}

func (s *provisionService) Provision(ctx context.Context, subject, authToken string) (*ProvisionResult, error) {
	account, err := s.accountRepo.GetOrCreateBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}

	existing, err := s.tenantRepo.GetByAccountID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("look up tenant: %w", err)
	}

	if existing == nil || existing.Status != models.TenantStatusActive {
		if err := s.provisionTenant(ctx, account.ID, existing); err != nil {
			return nil, err
		}
	}
	// Active tenant: nothing to mutate, just re-run setup below.

	// Read after write: the provisioning step above may have been skipped,
	// and its writes must be visible either way.
	tenant, err := s.tenantRepo.GetByAccountID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("re-fetch tenant: %w", err)
	}
	if tenant == nil {
		return nil, fmt.Errorf("failed to retrieve tenant after provisioning")
	}
	if tenant.Status != models.TenantStatusActive {
		return nil, fmt.Errorf("tenant in unexpected status %q", tenant.Status)
	}
	if tenant.SquadhubURL == nil || *tenant.SquadhubURL == "" ||
		tenant.SquadhubToken == nil || *tenant.SquadhubToken == "" {
		return nil, fmt.Errorf("tenant missing squadhub connection details")
	}

	setupResult, err := s.setup.Setup(ctx, SquadhubConnection{
		SquadhubURL:   *tenant.SquadhubURL,
		SquadhubToken: *tenant.SquadhubToken,
	}, s.backendURL, authToken)
	if err != nil {
		return nil, fmt.Errorf("tenant setup: %w", err)
	}

	return &ProvisionResult{
		OK:       len(setupResult.Errors) == 0,
		TenantID: tenant.ID,
		Agents:   setupResult.Agents,
		Crons:    setupResult.Crons,
		Routines: setupResult.Routines,
		Errors:   setupResult.Errors,
	}, nil
}

// provisionTenant runs the create-or-reuse path for a tenant that is not
// active yet: resolve the provisioner plugin, let it stand up (or locate)
// infrastructure, then persist the connection and flip the tenant active.
func (s *provisionService) provisionTenant(ctx context.Context, accountID uuid.UUID, existing *models.Tenant) error {
	provisioner, err := s.registry.Get(provision.SquadhubProvisionerName)
	if err != nil {
		return err
	}

	var tenantID uuid.UUID
	if existing != nil {
		// Reuse the non-active tenant instead of creating a duplicate.
		tenantID = existing.ID
	} else {
		tenant := &models.Tenant{
			ID:        uuid.New(),
			AccountID: accountID,
			Status:    models.TenantStatusPending,
		}
		if err := s.tenantRepo.Create(ctx, tenant); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
		tenantID = tenant.ID
	}

	outcome, err := provisioner.Provision(ctx, provision.Request{
		TenantID:   tenantID,
		AccountID:  accountID,
		BackendURL: s.backendURL,
	})
	if err != nil {
		return fmt.Errorf("provision tenant: %w", err)
	}

	update := repositories.ConnectionUpdate{
		SquadhubURL:   outcome.SquadhubURL,
		SquadhubToken: outcome.SquadhubToken,
	}
	if outcome.Metadata != nil {
		if outcome.Metadata.SquadhubServiceARN != "" {
			arn := outcome.Metadata.SquadhubServiceARN
			update.SquadhubServiceARN = &arn
		}
		if outcome.Metadata.EFSAccessPointID != "" {
			efs := outcome.Metadata.EFSAccessPointID
			update.EFSAccessPointID = &efs
		}
	}
	if err := s.tenantRepo.UpdateConnection(ctx, tenantID, update); err != nil {
		return fmt.Errorf("persist tenant connection: %w", err)
	}
	return nil
}
