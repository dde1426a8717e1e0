package handlers

import (
	"net/http"

	"clawe/internal/caching"
	"clawe/internal/services"

	"github.com/labstack/echo/v4"
)

// AgentHandlers handles the agent surface the dashboard and CLI consume.
type AgentHandlers struct {
	agentService services.AgentService
	cacheSvc     caching.CacheService
}

func NewAgentHandlers(agentService services.AgentService, cacheSvc caching.CacheService) *AgentHandlers {
	return &AgentHandlers{
		agentService: agentService,
		cacheSvc:     cacheSvc,
	}
}

// UpsertAgent handles POST /api/agents. Idempotent by agent slug; the CLI
// onboarding command calls this as its first, fatal step.
func (h *AgentHandlers) UpsertAgent(c echo.Context) error {
	var req services.UpsertAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	agent, err := h.agentService.Upsert(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, agent)
}

// ListAgents handles GET /api/agents. Every agent carries its
// heartbeat-derived status; the stored status column is not what the
// dashboard displays.
func (h *AgentHandlers) ListAgents(c echo.Context) error {
	views, err := h.agentService.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list agents")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"agents": views,
	})
}

// HeartbeatRequest is the body of an agent heartbeat tick. LastHeartbeat
// is optional; zero means "now".
type HeartbeatRequest struct {
	LastHeartbeat int64 `json:"lastHeartbeat"`
}

// RecordHeartbeat handles POST /api/agents/:agentId/heartbeat, reported
// by the agent process on each tick.
func (h *AgentHandlers) RecordHeartbeat(c echo.Context) error {
	agentID := c.Param("agentId")
	if agentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Agent ID is required")
	}

	var req HeartbeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.agentService.Heartbeat(c.Request().Context(), agentID, req.LastHeartbeat); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to record heartbeat")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GetPresence handles GET /api/presence: the cached presence snapshot the
// background refresher maintains. Cheaper than a full list for the
// sidebar's polling.
func (h *AgentHandlers) GetPresence(c echo.Context) error {
	presence, err := h.cacheSvc.GetPresence(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read presence snapshot")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"presence": presence,
	})
}
