// Package provision holds the tenant provisioner plugin registry. A
// provisioner is responsible for creating or locating Squadhub
// infrastructure for a tenant; the workflow that calls it neither knows nor
// cares whether that means reading env vars or standing up cloud resources.
package provision

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SquadhubProvisionerName is the plugin the provisioning workflow resolves.
const SquadhubProvisionerName = "squadhub-provisioner"

type Request struct {
	TenantID   uuid.UUID
	AccountID  uuid.UUID
	BackendURL string
}

// Metadata carries optional infrastructure identifiers a provisioner may
// report. Empty fields mean "nothing to record", not "clear".
type Metadata struct {
	SquadhubServiceARN string
	EFSAccessPointID   string
}

type Outcome struct {
	SquadhubURL   string
	SquadhubToken string
	Metadata      *Metadata
}

type Provisioner interface {
	Provision(ctx context.Context, req Request) (*Outcome, error)
}

// Registry maps provisioner names to implementations.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Provisioner
}

func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Provisioner)}
}

func (r *Registry) Register(name string, p Provisioner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[name] = p
}

func (r *Registry) Get(name string) (Provisioner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("provisioner %q not registered", name)
	}
	return p, nil
}
