package agents

import (
	"time"

	"clawe/internal/models"
)

// Status is the derived liveness of an agent.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// OnlineThreshold is the maximum heartbeat age for an agent to count as
// online. A heartbeat exactly this old is still online; one millisecond
// older is offline.
const OnlineThreshold = 20 * time.Minute

// DeriveStatus classifies an agent as online or offline from heartbeat
// recency alone. The stored Status field is deliberately ignored: agents
// write it themselves and crash without clearing it, so only LastHeartbeat
// is trusted. Callers supply now so the classification is deterministic
// under test.
func DeriveStatus(agent *models.Agent, now time.Time) Status {
	if agent.LastHeartbeat == nil || *agent.LastHeartbeat == 0 {
		return StatusOffline
	}
	if now.UnixMilli()-*agent.LastHeartbeat > OnlineThreshold.Milliseconds() {
		return StatusOffline
	}
	return StatusOnline
}
