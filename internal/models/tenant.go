package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant statuses. A tenant starts out pending and is flipped to active
// exactly once, after the provisioner has returned connection details.
const (
	TenantStatusPending = "pending"
	TenantStatusActive  = "active"
)

type Tenant struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	AccountID          uuid.UUID `json:"account_id" db:"account_id"`
	Status             string    `json:"status" db:"status"`
	SquadhubURL        *string   `json:"squadhubUrl,omitempty" db:"squadhub_url"`
	SquadhubToken      *string   `json:"squadhubToken,omitempty" db:"squadhub_token"`
	SquadhubServiceARN *string   `json:"squadhubServiceArn,omitempty" db:"squadhub_service_arn"`
	EFSAccessPointID   *string   `json:"efsAccessPointId,omitempty" db:"efs_access_point_id"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Usable reports whether the tenant can actually be connected to: active
// status alone is not enough, both connection fields must be present.
func (t *Tenant) Usable() bool {
	return t.Status == TenantStatusActive &&
		t.SquadhubURL != nil && *t.SquadhubURL != "" &&
		t.SquadhubToken != nil && *t.SquadhubToken != ""
}
