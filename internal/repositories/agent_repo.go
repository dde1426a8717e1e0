package repositories

import (
	"context"
	"errors"

	"clawe/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const agentColumns = `id, agent_id, name, role, emoji, session_key, agent_type,
	       cron_schedule, model, status, current_task, last_heartbeat,
	       created_at, updated_at`

type AgentRepository interface {
	// Upsert inserts or replaces the agent's metadata, keyed by agent slug.
	Upsert(ctx context.Context, agent *models.Agent) (*models.Agent, error)
	// GetByAgentID returns (nil, nil) when the slug is unknown.
	GetByAgentID(ctx context.Context, agentID string) (*models.Agent, error)
	List(ctx context.Context) ([]*models.Agent, error)
	// RecordHeartbeat stores the heartbeat tick reported by the agent
	// process, in milliseconds since epoch.
	RecordHeartbeat(ctx context.Context, agentID string, heartbeat int64) error
}

type agentRepo struct {
	db Database
}

func NewAgentRepo(db Database) AgentRepository {
	return &agentRepo{db: db}
}

func (r *agentRepo) Upsert(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	stored := &models.Agent{}
	query := `
		INSERT INTO agents (id, agent_id, name, role, emoji, session_key,
		                    agent_type, cron_schedule, model, status,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'offline', NOW(), NOW())
		ON CONFLICT (agent_id) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			emoji = EXCLUDED.emoji,
			session_key = EXCLUDED.session_key,
			agent_type = EXCLUDED.agent_type,
			cron_schedule = EXCLUDED.cron_schedule,
			model = EXCLUDED.model,
			updated_at = NOW()
		RETURNING ` + agentColumns + `
	`
	err := r.db.QueryRow(ctx, query,
		uuid.New(), agent.AgentID, agent.Name, agent.Role, agent.Emoji,
		agent.SessionKey, agent.AgentType, agent.CronSchedule, agent.Model,
	).Scan(
		&stored.ID, &stored.AgentID, &stored.Name, &stored.Role, &stored.Emoji,
		&stored.SessionKey, &stored.AgentType, &stored.CronSchedule, &stored.Model,
		&stored.Status, &stored.CurrentTask, &stored.LastHeartbeat,
		&stored.CreatedAt, &stored.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *agentRepo) GetByAgentID(ctx context.Context, agentID string) (*models.Agent, error) {
	agent := &models.Agent{}
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		WHERE agent_id = $1
	`
	err := r.db.QueryRow(ctx, query, agentID).Scan(
		&agent.ID, &agent.AgentID, &agent.Name, &agent.Role, &agent.Emoji,
		&agent.SessionKey, &agent.AgentType, &agent.CronSchedule, &agent.Model,
		&agent.Status, &agent.CurrentTask, &agent.LastHeartbeat,
		&agent.CreatedAt, &agent.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (r *agentRepo) List(ctx context.Context) ([]*models.Agent, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.Agent
	for rows.Next() {
		agent := &models.Agent{}
		if err := rows.Scan(
			&agent.ID, &agent.AgentID, &agent.Name, &agent.Role, &agent.Emoji,
			&agent.SessionKey, &agent.AgentType, &agent.CronSchedule, &agent.Model,
			&agent.Status, &agent.CurrentTask, &agent.LastHeartbeat,
			&agent.CreatedAt, &agent.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, agent)
	}
	return result, rows.Err()
}

func (r *agentRepo) RecordHeartbeat(ctx context.Context, agentID string, heartbeat int64) error {
	query := `
		UPDATE agents
		SET last_heartbeat = $2, updated_at = NOW()
		WHERE agent_id = $1
	`
	_, err := r.db.Exec(ctx, query, agentID, heartbeat)
	return err
}
