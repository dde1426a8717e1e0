package onboarding

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clawe/internal/backend"
	"clawe/internal/gateway"
	"clawe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackendClient struct {
	mock.Mock
}

func (m *MockBackendClient) UpsertAgent(ctx context.Context, req backend.UpsertAgentRequest) (*models.Agent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

type stubOnboardGateway struct {
	agentExists bool
	cronExists  bool
	agentErr    error
	cronErr     error

	agentCalls []gateway.AgentEntry
	cronCalls  []gateway.CronJob
}

func (s *stubOnboardGateway) EnsureAgent(ctx context.Context, entry gateway.AgentEntry) (bool, error) {
	s.agentCalls = append(s.agentCalls, entry)
	if s.agentErr != nil {
		return false, s.agentErr
	}
	return !s.agentExists, nil
}

func (s *stubOnboardGateway) EnsureCronJob(ctx context.Context, job gateway.CronJob) (bool, error) {
	s.cronCalls = append(s.cronCalls, job)
	if s.cronErr != nil {
		return false, s.cronErr
	}
	return !s.cronExists, nil
}

func registeredAgent(agentID string) *models.Agent {
	return &models.Agent{AgentID: agentID}
}

func TestRun_FullSequence(t *testing.T) {
	dataDir := t.TempDir()
	templatesDir := t.TempDir()

	baseDir := filepath.Join(templatesDir, "base", "worker")
	require.NoError(t, os.MkdirAll(baseDir, 0o755))
	template := "# AGENTS.md\n\nYou are ${AGENT_NAME} ${AGENT_EMOJI}, id ${AGENT_ID}, the ${AGENT_ROLE}.\n"
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "AGENTS.md"), []byte(template), 0o644))

	backendClient := new(MockBackendClient)
	backendClient.On("UpsertAgent", mock.Anything, mock.MatchedBy(func(req backend.UpsertAgentRequest) bool {
		return req.AgentID == "scout" && req.Emoji == models.DefaultAgentEmoji && req.CronSchedule == models.DefaultCronSchedule
	})).Return(registeredAgent("scout"), nil)

	gw := &stubOnboardGateway{}
	var out bytes.Buffer

	onboarder := NewOnboarder(backendClient, gw, WorkspaceConfig{DataDir: dataDir, TemplatesDir: templatesDir}, &out)
	err := onboarder.Run(context.Background(), Options{
		AgentID: "scout",
		Name:    "Scout",
		Role:    "Research Specialist",
	})
	require.NoError(t, err)

	rendered, err := os.ReadFile(filepath.Join(dataDir, "workspace-scout", "AGENTS.md"))
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "You are Scout 🤖, id scout, the Research Specialist.")

	soul, err := os.ReadFile(filepath.Join(dataDir, "workspace-scout", "SOUL.md"))
	require.NoError(t, err)
	assert.Contains(t, string(soul), "You are **Scout**, the Research Specialist.")

	require.Len(t, gw.agentCalls, 1)
	assert.Equal(t, "scout", gw.agentCalls[0].ID)
	assert.Equal(t, dataDir+"/workspace-scout", gw.agentCalls[0].Workspace)
	require.Len(t, gw.cronCalls, 1)
	assert.Equal(t, "scout-heartbeat", gw.cronCalls[0].Name)
	assert.Equal(t, models.DefaultCronSchedule, gw.cronCalls[0].Schedule.Expr)

	assert.Contains(t, out.String(), "✅ Agent Scout 🤖 onboarded successfully!")
	backendClient.AssertExpectations(t)
}

func TestRun_RegistrationFailureAborts(t *testing.T) {
	backendClient := new(MockBackendClient)
	backendClient.On("UpsertAgent", mock.Anything, mock.Anything).Return(nil, errors.New("connect to backend at http://127.0.0.1:3210: connection refused"))

	gw := &stubOnboardGateway{}
	var out bytes.Buffer

	onboarder := NewOnboarder(backendClient, gw, WorkspaceConfig{DataDir: t.TempDir(), TemplatesDir: t.TempDir()}, &out)
	err := onboarder.Run(context.Background(), Options{AgentID: "scout", Name: "Scout", Role: "Researcher"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register agent")
	assert.Empty(t, gw.agentCalls)
	assert.Empty(t, gw.cronCalls)
}

func TestRun_WorkspaceFailureContinues(t *testing.T) {
	// A file where the data dir should be makes workspace creation fail.
	tmp := t.TempDir()
	dataDir := filepath.Join(tmp, "data")
	require.NoError(t, os.WriteFile(dataDir, []byte("not a directory"), 0o644))

	backendClient := new(MockBackendClient)
	backendClient.On("UpsertAgent", mock.Anything, mock.Anything).Return(registeredAgent("scout"), nil)

	gw := &stubOnboardGateway{}
	var out bytes.Buffer

	onboarder := NewOnboarder(backendClient, gw, WorkspaceConfig{DataDir: dataDir, TemplatesDir: t.TempDir()}, &out)
	err := onboarder.Run(context.Background(), Options{AgentID: "scout", Name: "Scout", Role: "Researcher"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "✗ Failed to create workspace")
	assert.Len(t, gw.agentCalls, 1)
	assert.Len(t, gw.cronCalls, 1)
}

func TestRun_GatewayFailuresNonFatal(t *testing.T) {
	backendClient := new(MockBackendClient)
	backendClient.On("UpsertAgent", mock.Anything, mock.Anything).Return(registeredAgent("scout"), nil)

	gw := &stubOnboardGateway{
		agentErr: errors.New("connect to gateway at http://localhost:18789: connection refused"),
		cronErr:  errors.New("connect to gateway at http://localhost:18789: connection refused"),
	}
	var out bytes.Buffer

	onboarder := NewOnboarder(backendClient, gw, WorkspaceConfig{DataDir: t.TempDir(), TemplatesDir: t.TempDir()}, &out)
	err := onboarder.Run(context.Background(), Options{AgentID: "scout", Name: "Scout", Role: "Researcher"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "✗ Failed to patch config")
	assert.Contains(t, out.String(), "✗ Failed to add cron")
	assert.Contains(t, out.String(), "onboarded successfully")
}

func TestRun_SecondRunSkipsGatewaySteps(t *testing.T) {
	backendClient := new(MockBackendClient)
	backendClient.On("UpsertAgent", mock.Anything, mock.Anything).Return(registeredAgent("scout"), nil)

	gw := &stubOnboardGateway{agentExists: true, cronExists: true}
	var out bytes.Buffer

	onboarder := NewOnboarder(backendClient, gw, WorkspaceConfig{DataDir: t.TempDir(), TemplatesDir: t.TempDir()}, &out)
	err := onboarder.Run(context.Background(), Options{AgentID: "scout", Name: "Scout", Role: "Researcher"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Agent already in gateway config")
	assert.Contains(t, out.String(), "✓ Heartbeat cron already exists")
}

func TestRun_LeadUsesSharedWorkspace(t *testing.T) {
	dataDir := t.TempDir()

	backendClient := new(MockBackendClient)
	backendClient.On("UpsertAgent", mock.Anything, mock.Anything).Return(registeredAgent("clawe"), nil)

	gw := &stubOnboardGateway{}
	var out bytes.Buffer

	onboarder := NewOnboarder(backendClient, gw, WorkspaceConfig{DataDir: dataDir, TemplatesDir: t.TempDir()}, &out)
	err := onboarder.Run(context.Background(), Options{
		AgentID:   "clawe",
		Name:      "Clawe",
		Role:      "Squad Lead",
		AgentType: "lead",
	})
	require.NoError(t, err)

	require.Len(t, gw.agentCalls, 1)
	assert.Equal(t, dataDir+"/workspace", gw.agentCalls[0].Workspace)
	assert.NotContains(t, out.String(), "To customize, edit:")
}

func TestBuild_MinimalWorkspaceWithoutTemplates(t *testing.T) {
	dataDir := t.TempDir()
	ws := WorkspaceConfig{DataDir: dataDir, TemplatesDir: filepath.Join(dataDir, "missing")}
	var out bytes.Buffer

	opts := Options{AgentID: "scout", Name: "Scout", Role: "Researcher", AgentType: "worker", Emoji: "🤖"}
	require.NoError(t, ws.Build(context.Background(), opts, &out))

	agentsFile, err := os.ReadFile(filepath.Join(dataDir, "workspace-scout", "AGENTS.md"))
	require.NoError(t, err)
	assert.Contains(t, string(agentsFile), "Session key: agent:scout:main")
	assert.Contains(t, out.String(), "⚠ Base templates not found")
}

func TestBuild_AgentOverlayReplacesDefaultSoul(t *testing.T) {
	dataDir := t.TempDir()
	templatesDir := t.TempDir()

	agentDir := filepath.Join(templatesDir, "workspaces", "scout")
	require.NoError(t, os.MkdirAll(agentDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(agentDir, "SOUL.md"), []byte("# Custom soul\n"), 0o644))

	ws := WorkspaceConfig{DataDir: dataDir, TemplatesDir: templatesDir}
	var out bytes.Buffer

	opts := Options{AgentID: "scout", Name: "Scout", Role: "Researcher", AgentType: "worker", Emoji: "🤖"}
	require.NoError(t, ws.Build(context.Background(), opts, &out))

	soul, err := os.ReadFile(filepath.Join(dataDir, "workspace-scout", "SOUL.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Custom soul\n", string(soul))
	assert.Contains(t, out.String(), "✓ Agent-specific files copied")
	assert.NotContains(t, out.String(), "Default SOUL.md")
}

func TestBuild_LinksSharedDirectory(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "shared"), 0o755))

	ws := WorkspaceConfig{DataDir: dataDir, TemplatesDir: filepath.Join(dataDir, "missing")}
	var out bytes.Buffer

	opts := Options{AgentID: "scout", Name: "Scout", Role: "Researcher", AgentType: "worker", Emoji: "🤖"}
	require.NoError(t, ws.Build(context.Background(), opts, &out))

	link := filepath.Join(dataDir, "workspace-scout", "shared")
	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "shared"), target)

	// Second run leaves the existing link alone.
	require.NoError(t, ws.Build(context.Background(), opts, &out))
	assert.True(t, strings.Count(out.String(), "Shared directory linked") == 1)
}

func TestRenderTemplate(t *testing.T) {
	opts := Options{AgentID: "scout", Name: "Scout", Emoji: "🔎", Role: "Researcher"}
	rendered := renderTemplate("${AGENT_NAME} (${AGENT_ID}) ${AGENT_EMOJI} is the ${AGENT_ROLE}", opts)
	assert.Equal(t, "Scout (scout) 🔎 is the Researcher", rendered)
}
