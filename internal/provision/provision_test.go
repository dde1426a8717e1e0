package provision

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	p := NewEnvProvisioner("http://squadhub.local", "tok")

	registry.Register(SquadhubProvisionerName, p)

	got, err := registry.Get(SquadhubProvisionerName)
	require.NoError(t, err)
	assert.Equal(t, Provisioner(p), got)
}

func TestRegistry_UnknownName(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("cloud-provisioner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestEnvProvisioner_ReturnsConfiguredConnection(t *testing.T) {
	p := NewEnvProvisioner("http://squadhub.local", "tok-abc")

	outcome, err := p.Provision(context.Background(), Request{
		TenantID:   uuid.New(),
		AccountID:  uuid.New(),
		BackendURL: "http://127.0.0.1:8080",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://squadhub.local", outcome.SquadhubURL)
	assert.Equal(t, "tok-abc", outcome.SquadhubToken)
	assert.Nil(t, outcome.Metadata)
}

func TestEnvProvisioner_MissingConfig(t *testing.T) {
	p := NewEnvProvisioner("", "")

	_, err := p.Provision(context.Background(), Request{})
	require.Error(t, err)
}
