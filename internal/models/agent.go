package models

import (
	"time"

	"github.com/google/uuid"
)

// Defaults applied when onboarding an agent without explicit options.
const (
	DefaultAgentEmoji   = "🤖"
	DefaultCronSchedule = "15,45 * * * *"
	DefaultAgentModel   = "anthropic/claude-sonnet-4-20250514"
	DefaultAgentType    = "worker"
)

// SessionKey derives the gateway session key for an agent slug.
func SessionKey(agentID string) string {
	return "agent:" + agentID + ":main"
}

// Agent is the stored record for a squad agent. The Status column is
// whatever the agent last reported about itself and is not authoritative;
// displayed liveness is derived from LastHeartbeat (see internal/agents).
type Agent struct {
	ID            uuid.UUID `json:"id" db:"id"`
	AgentID       string    `json:"agentId" db:"agent_id"`
	Name          string    `json:"name" db:"name"`
	Role          string    `json:"role" db:"role"`
	Emoji         string    `json:"emoji" db:"emoji"`
	SessionKey    string    `json:"sessionKey" db:"session_key"`
	AgentType     string    `json:"agentType" db:"agent_type"`
	CronSchedule  string    `json:"cronSchedule" db:"cron_schedule"`
	Model         string    `json:"model" db:"model"`
	Status        string    `json:"status" db:"status"`
	CurrentTask   *string   `json:"currentTask,omitempty" db:"current_task"`
	LastHeartbeat *int64    `json:"lastHeartbeat,omitempty" db:"last_heartbeat"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
