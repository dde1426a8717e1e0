package provision

import (
	"context"
	"errors"
)

// EnvProvisioner is the dev provisioner: it hands out a fixed Squadhub
// endpoint and token taken from the server's environment instead of
// creating infrastructure. Every tenant shares the one local Squadhub.
type EnvProvisioner struct {
	SquadhubURL   string
	SquadhubToken string
}

func NewEnvProvisioner(url, token string) *EnvProvisioner {
	return &EnvProvisioner{SquadhubURL: url, SquadhubToken: token}
}

func (p *EnvProvisioner) Provision(_ context.Context, _ Request) (*Outcome, error) {
	if p.SquadhubURL == "" || p.SquadhubToken == "" {
		return nil, errors.New("SQUADHUB_URL and SQUADHUB_TOKEN must be set for the env provisioner")
	}
	return &Outcome{
		SquadhubURL:   p.SquadhubURL,
		SquadhubToken: p.SquadhubToken,
	}, nil
}
