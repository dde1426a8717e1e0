package services

import (
	"context"
	"fmt"

	"clawe/internal/gateway"
	"clawe/internal/models"
	"clawe/internal/repositories"
)

// CategoryOutcome lists what a setup pass did for one category: entries it
// created and entries that already existed.
type CategoryOutcome struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

// SetupResult is the per-tenant bootstrap outcome. Errors are non-fatal:
// a failed category entry is recorded and the pass continues.
type SetupResult struct {
	Agents   CategoryOutcome `json:"agents"`
	Crons    CategoryOutcome `json:"crons"`
	Routines CategoryOutcome `json:"routines"`
	Errors   []string        `json:"errors"`
}

// SquadhubConnection is the validated endpoint/credential pair of an
// active tenant.
type SquadhubConnection struct {
	SquadhubURL   string
	SquadhubToken string
}

// TenantSetup bootstraps a tenant's default squad: agent records, gateway
// config entries, heartbeat crons and scheduled routines.
type TenantSetup interface {
	Setup(ctx context.Context, conn SquadhubConnection, backendURL, authToken string) (*SetupResult, error)
}

// GatewayClient is the slice of the gateway client the setup pass needs.
type GatewayClient interface {
	EnsureAgent(ctx context.Context, entry gateway.AgentEntry) (bool, error)
	EnsureCronJob(ctx context.Context, job gateway.CronJob) (bool, error)
}

type DefaultAgent struct {
	AgentID      string
	Name         string
	Role         string
	Emoji        string
	AgentType    string
	CronSchedule string
	Model        string
}

// RoutineSpec is a squad-wide scheduled job, distinct from per-agent
// heartbeats.
type RoutineSpec struct {
	Name     string
	AgentID  string
	Schedule string
	Message  string
}

type SetupDefaults struct {
	Agents   []DefaultAgent
	Routines []RoutineSpec
	DataDir  string
}

// DefaultSquad is the squad every fresh tenant starts with: the lead agent
// and its morning planning routine.
func DefaultSquad() SetupDefaults {
	return SetupDefaults{
		Agents: []DefaultAgent{
			{
				AgentID:      "clawe",
				Name:         "Clawe",
				Role:         "Squad Lead",
				Emoji:        "🦞",
				AgentType:    "lead",
				CronSchedule: "15,45 * * * *",
				Model:        "anthropic/claude-sonnet-4-20250514",
			},
		},
		Routines: []RoutineSpec{
			{
				Name:     "squad-standup",
				AgentID:  "clawe",
				Schedule: "0 9 * * *",
				Message:  "Review the board, summarize overnight progress, and plan the squad's day.",
			},
		},
		DataDir: "/data",
	}
}

type squadhubSetup struct {
	agentRepo  repositories.AgentRepository
	defaults   SetupDefaults
	newGateway func(url, token string) GatewayClient
}

// NewSquadhubSetup builds the gateway-backed tenant setup. newGateway is
// injected because the gateway endpoint is only known per-tenant, from the
// connection being set up.
func NewSquadhubSetup(agentRepo repositories.AgentRepository, defaults SetupDefaults, newGateway func(url, token string) GatewayClient) TenantSetup {
	if newGateway == nil {
		newGateway = func(url, token string) GatewayClient {
			return gateway.NewClient(url, token)
		}
	}
	return &squadhubSetup{
		agentRepo:  agentRepo,
		defaults:   defaults,
		newGateway: newGateway,
	}
}

// The backend URL and auth token from the TenantSetup contract go unused
// here: agent records are written through the in-process repository, so
// only the tenant's gateway credentials are dialed. An out-of-process
// setup implementation would need them.
func (s *squadhubSetup) Setup(ctx context.Context, conn SquadhubConnection, _, _ string) (*SetupResult, error) {
	result := &SetupResult{
		Agents:   CategoryOutcome{Created: []string{}, Skipped: []string{}},
		Crons:    CategoryOutcome{Created: []string{}, Skipped: []string{}},
		Routines: CategoryOutcome{Created: []string{}, Skipped: []string{}},
		Errors:   []string{},
	}

	gw := s.newGateway(conn.SquadhubURL, conn.SquadhubToken)

	for _, a := range s.defaults.Agents {
		existing, err := s.agentRepo.GetByAgentID(ctx, a.AgentID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("agent %s: %v", a.AgentID, err))
			continue
		}
		if existing == nil {
			_, err := s.agentRepo.Upsert(ctx, &models.Agent{
				AgentID:      a.AgentID,
				Name:         a.Name,
				Role:         a.Role,
				Emoji:        a.Emoji,
				SessionKey:   fmt.Sprintf("agent:%s:main", a.AgentID),
				AgentType:    a.AgentType,
				CronSchedule: a.CronSchedule,
				Model:        a.Model,
			})
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("agent %s: %v", a.AgentID, err))
				continue
			}
			result.Agents.Created = append(result.Agents.Created, a.AgentID)
		} else {
			result.Agents.Skipped = append(result.Agents.Skipped, a.AgentID)
		}

		if _, err := gw.EnsureAgent(ctx, gateway.AgentEntry{
			ID:        a.AgentID,
			Name:      a.Name,
			Workspace: gateway.WorkspacePath(s.defaults.DataDir, a.AgentType, a.AgentID),
			Model:     a.Model,
			Identity:  &gateway.Identity{Name: a.Name, Emoji: a.Emoji},
		}); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("gateway config %s: %v", a.AgentID, err))
		}

		added, err := gw.EnsureCronJob(ctx, gateway.NewHeartbeatJob(a.AgentID, a.CronSchedule, a.Model))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("heartbeat cron %s: %v", a.AgentID, err))
			continue
		}
		name := a.AgentID + "-heartbeat"
		if added {
			result.Crons.Created = append(result.Crons.Created, name)
		} else {
			result.Crons.Skipped = append(result.Crons.Skipped, name)
		}
	}

	for _, r := range s.defaults.Routines {
		added, err := gw.EnsureCronJob(ctx, gateway.CronJob{
			Name:          r.Name,
			AgentID:       r.AgentID,
			Enabled:       true,
			Schedule:      gateway.CronSchedule{Kind: "cron", Expr: r.Schedule},
			SessionTarget: "isolated",
			Payload: gateway.CronPayload{
				Kind:           "agentTurn",
				Message:        r.Message,
				TimeoutSeconds: 600,
			},
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("routine %s: %v", r.Name, err))
			continue
		}
		if added {
			result.Routines.Created = append(result.Routines.Created, r.Name)
		} else {
			result.Routines.Skipped = append(result.Routines.Skipped, r.Name)
		}
	}

	return result, nil
}
