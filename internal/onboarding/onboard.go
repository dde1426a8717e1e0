// Package onboarding wires a new agent into the squad: registration in
// the dashboard, a populated workspace, a gateway config entry, and a
// heartbeat cron. Registration is fatal; the later steps report and
// continue so a half-configured gateway never blocks the agent record.
package onboarding

import (
	"context"
	"fmt"
	"io"

	"clawe/internal/backend"
	"clawe/internal/gateway"
	"clawe/internal/models"
)

type Options struct {
	AgentID      string
	Name         string
	Role         string
	Emoji        string
	CronSchedule string
	Model        string
	AgentType    string
}

func (o *Options) applyDefaults() {
	if o.Emoji == "" {
		o.Emoji = models.DefaultAgentEmoji
	}
	if o.CronSchedule == "" {
		o.CronSchedule = models.DefaultCronSchedule
	}
	if o.Model == "" {
		o.Model = models.DefaultAgentModel
	}
	if o.AgentType == "" {
		o.AgentType = models.DefaultAgentType
	}
}

type BackendClient interface {
	UpsertAgent(ctx context.Context, req backend.UpsertAgentRequest) (*models.Agent, error)
}

type GatewayClient interface {
	EnsureAgent(ctx context.Context, entry gateway.AgentEntry) (bool, error)
	EnsureCronJob(ctx context.Context, job gateway.CronJob) (bool, error)
}

type Onboarder struct {
	backend   BackendClient
	gateway   GatewayClient
	workspace WorkspaceConfig
	out       io.Writer
}

func NewOnboarder(backendClient BackendClient, gatewayClient GatewayClient, workspace WorkspaceConfig, out io.Writer) *Onboarder {
	return &Onboarder{
		backend:   backendClient,
		gateway:   gatewayClient,
		workspace: workspace,
		out:       out,
	}
}

// Run executes the onboarding sequence. Only registration failure aborts.
func (o *Onboarder) Run(ctx context.Context, opts Options) error {
	opts.applyDefaults()
	sessionKey := models.SessionKey(opts.AgentID)

	fmt.Fprintf(o.out, "🦞 Onboarding agent: %s %s\n", opts.Name, opts.Emoji)
	fmt.Fprintf(o.out, "   ID: %s\n", opts.AgentID)
	fmt.Fprintf(o.out, "   Role: %s\n", opts.Role)
	fmt.Fprintf(o.out, "   Type: %s\n", opts.AgentType)
	fmt.Fprintf(o.out, "   Session: %s\n", sessionKey)
	fmt.Fprintf(o.out, "   Cron: %s\n", opts.CronSchedule)
	fmt.Fprintf(o.out, "   Model: %s\n", opts.Model)
	fmt.Fprintln(o.out)

	fmt.Fprintln(o.out, "1. Registering agent...")
	_, err := o.backend.UpsertAgent(ctx, backend.UpsertAgentRequest{
		AgentID:      opts.AgentID,
		Name:         opts.Name,
		Role:         opts.Role,
		Emoji:        opts.Emoji,
		AgentType:    opts.AgentType,
		CronSchedule: opts.CronSchedule,
		Model:        opts.Model,
	})
	if err != nil {
		return fmt.Errorf("failed to register agent: %w", err)
	}
	fmt.Fprintln(o.out, "   ✓ Agent registered")

	fmt.Fprintln(o.out, "2. Creating workspace...")
	if err := o.workspace.Build(ctx, opts, o.out); err != nil {
		fmt.Fprintf(o.out, "   ✗ Failed to create workspace: %v\n", err)
		fmt.Fprintln(o.out, "   → You may need to create the workspace manually")
	}

	fmt.Fprintln(o.out, "3. Patching gateway config...")
	o.patchGateway(ctx, opts)

	fmt.Fprintln(o.out, "4. Adding heartbeat cron...")
	o.addHeartbeatCron(ctx, opts)

	fmt.Fprintln(o.out)
	fmt.Fprintf(o.out, "✅ Agent %s %s onboarded successfully!\n", opts.Name, opts.Emoji)
	fmt.Fprintln(o.out)
	fmt.Fprintln(o.out, "The agent will start working on the next heartbeat.")
	if opts.AgentType != "lead" {
		wsDir := gateway.WorkspacePath(o.workspace.DataDir, opts.AgentType, opts.AgentID)
		fmt.Fprintf(o.out, "To customize, edit: %s/SOUL.md\n", wsDir)
	}
	return nil
}

func (o *Onboarder) patchGateway(ctx context.Context, opts Options) {
	entry := gateway.AgentEntry{
		ID:        opts.AgentID,
		Name:      opts.Name,
		Workspace: gateway.WorkspacePath(o.workspace.DataDir, opts.AgentType, opts.AgentID),
		Model:     opts.Model,
		Identity:  &gateway.Identity{Name: opts.Name, Emoji: opts.Emoji},
	}

	added, err := o.gateway.EnsureAgent(ctx, entry)
	if err != nil {
		fmt.Fprintf(o.out, "   ✗ Failed to patch config: %v\n", err)
		fmt.Fprintln(o.out, "   → You may need to add the agent to the gateway config manually")
		return
	}
	if added {
		fmt.Fprintln(o.out, "   ✓ Gateway config patched (agent added)")
	} else {
		fmt.Fprintln(o.out, "   ✓ Agent already in gateway config")
	}
}

func (o *Onboarder) addHeartbeatCron(ctx context.Context, opts Options) {
	job := gateway.NewHeartbeatJob(opts.AgentID, opts.CronSchedule, opts.Model)

	added, err := o.gateway.EnsureCronJob(ctx, job)
	if err != nil {
		fmt.Fprintf(o.out, "   ✗ Failed to add cron: %v\n", err)
		return
	}
	if added {
		fmt.Fprintf(o.out, "   ✓ Heartbeat cron added: %s\n", opts.CronSchedule)
	} else {
		fmt.Fprintln(o.out, "   ✓ Heartbeat cron already exists")
	}
}
