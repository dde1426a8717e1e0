package services

import (
	"context"
	"errors"
	"time"

	"clawe/internal/agents"
	"clawe/internal/models"
	"clawe/internal/repositories"
)

type AgentService interface {
	Upsert(ctx context.Context, req *UpsertAgentRequest) (*models.Agent, error)
	// List returns all agents with their derived liveness attached.
	List(ctx context.Context) ([]*AgentView, error)
	Heartbeat(ctx context.Context, agentID string, heartbeat int64) error
}

type UpsertAgentRequest struct {
	AgentID      string `json:"agentId" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Role         string `json:"role" validate:"required"`
	Emoji        string `json:"emoji"`
	AgentType    string `json:"agentType"`
	CronSchedule string `json:"cronSchedule"`
	Model        string `json:"model"`
}

// AgentView is an agent record plus the heartbeat-derived status the
// dashboard actually displays.
type AgentView struct {
	*models.Agent
	DerivedStatus agents.Status `json:"derivedStatus"`
}

type agentService struct {
	agentRepo repositories.AgentRepository
	now       func() time.Time
}

func NewAgentService(agentRepo repositories.AgentRepository) AgentService {
	return &agentService{agentRepo: agentRepo, now: time.Now}
}

func (s *agentService) Upsert(ctx context.Context, req *UpsertAgentRequest) (*models.Agent, error) {
	if req.AgentID == "" || req.Name == "" || req.Role == "" {
		return nil, errors.New("agentId, name and role are required")
	}
	if req.AgentType != "" && req.AgentType != "lead" && req.AgentType != "worker" {
		return nil, errors.New("agentType must be either 'lead' or 'worker'")
	}

	agent := &models.Agent{
		AgentID:      req.AgentID,
		Name:         req.Name,
		Role:         req.Role,
		Emoji:        req.Emoji,
		SessionKey:   models.SessionKey(req.AgentID),
		AgentType:    req.AgentType,
		CronSchedule: req.CronSchedule,
		Model:        req.Model,
	}
	if agent.Emoji == "" {
		agent.Emoji = models.DefaultAgentEmoji
	}
	if agent.AgentType == "" {
		agent.AgentType = models.DefaultAgentType
	}
	if agent.CronSchedule == "" {
		agent.CronSchedule = models.DefaultCronSchedule
	}
	if agent.Model == "" {
		agent.Model = models.DefaultAgentModel
	}

	return s.agentRepo.Upsert(ctx, agent)
}

func (s *agentService) List(ctx context.Context) ([]*AgentView, error) {
	list, err := s.agentRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]*AgentView, 0, len(list))
	for _, agent := range list {
		views = append(views, &AgentView{
			Agent:         agent,
			DerivedStatus: agents.DeriveStatus(agent, now),
		})
	}
	return views, nil
}

func (s *agentService) Heartbeat(ctx context.Context, agentID string, heartbeat int64) error {
	if agentID == "" {
		return errors.New("agentId is required")
	}
	if heartbeat == 0 {
		heartbeat = s.now().UnixMilli()
	}
	return s.agentRepo.RecordHeartbeat(ctx, agentID, heartbeat)
}
