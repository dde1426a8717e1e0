// clawe is the squad operator CLI: onboard agents into the gateway and
// inspect squad status from the dashboard backend.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"clawe/internal/agents"
	"clawe/internal/backend"
	"clawe/internal/gateway"
	"clawe/internal/onboarding"
	"clawe/internal/services"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	if len(args) == 0 {
		printHelp()
		return nil
	}

	switch args[0] {
	case "agent":
		if len(args) >= 2 && args[1] == "onboard" {
			return runOnboard(args[2:])
		}
		printHelp()
		return fmt.Errorf("unknown agent subcommand")
	case "squad":
		return runSquad()
	case "help", "--help", "-h":
		printHelp()
		return nil
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func backendClient() *backend.Client {
	return backend.NewClient(
		envOr("CLAWE_BACKEND_URL", "http://127.0.0.1:3210"),
		os.Getenv("CLAWE_TOKEN"),
	)
}

func runOnboard(args []string) error {
	flagSet := pflag.NewFlagSet("agent onboard", pflag.ContinueOnError)
	emoji := flagSet.String("emoji", "", "agent emoji (default 🤖)")
	cron := flagSet.String("cron", "", "heartbeat cron schedule (default 15,45 * * * *)")
	model := flagSet.String("model", "", "model the agent runs on")
	agentType := flagSet.String("type", "", "agent type: lead or worker (default worker)")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	positional := flagSet.Args()
	if len(positional) != 3 {
		return fmt.Errorf("usage: clawe agent onboard <agent-id> <name> <role> [flags]")
	}

	workspace := onboarding.WorkspaceConfig{
		DataDir:      envOr("CLAWE_DATA_DIR", "/data"),
		TemplatesDir: envOr("CLAWE_TEMPLATES_DIR", "/opt/clawe/templates"),
	}

	// Remote template overlays are optional; most installs template from
	// the local filesystem.
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		store, err := services.NewMinioTemplateStore(
			endpoint,
			os.Getenv("MINIO_ACCESS_KEY"),
			os.Getenv("MINIO_SECRET_KEY"),
			os.Getenv("MINIO_USE_SSL") == "true",
		)
		if err != nil {
			return fmt.Errorf("initialize template store: %w", err)
		}
		workspace.Store = store
		workspace.Bucket = envOr("CLAWE_TEMPLATES_BUCKET", "clawe-templates")
	}

	gatewayClient := gateway.NewClient(
		envOr("CLAWE_GATEWAY_URL", "http://localhost:18789"),
		os.Getenv("CLAWE_GATEWAY_TOKEN"),
	)

	onboarder := onboarding.NewOnboarder(backendClient(), gatewayClient, workspace, os.Stdout)
	return onboarder.Run(context.Background(), onboarding.Options{
		AgentID:      positional[0],
		Name:         positional[1],
		Role:         positional[2],
		Emoji:        *emoji,
		CronSchedule: *cron,
		Model:        *model,
		AgentType:    *agentType,
	})
}

func runSquad() error {
	views, err := backendClient().ListAgents(context.Background())
	if err != nil {
		return err
	}

	printSquad(os.Stdout, views, time.Now())
	return nil
}

// printSquad classifies each agent from its heartbeat at render time
// rather than trusting the status the backend computed when it answered.
func printSquad(out io.Writer, views []*backend.AgentView, now time.Time) {
	fmt.Fprintf(out, "🤖 Squad Status:\n\n")
	for _, view := range views {
		emoji := view.Emoji
		if emoji == "" {
			emoji = "🤖"
		}
		fmt.Fprintf(out, "%s %s (%s)\n", emoji, view.Name, view.Role)
		if agents.DeriveStatus(&view.Agent, now) == agents.StatusOnline {
			fmt.Fprintln(out, "   Status: 🟢 online")
		} else {
			fmt.Fprintln(out, "   Status: 🔴 offline")
		}
		fmt.Fprintf(out, "   Session: %s\n", view.SessionKey)
		if view.CurrentTask != nil && *view.CurrentTask != "" {
			fmt.Fprintf(out, "   Working on: %s\n", *view.CurrentTask)
		}
		fmt.Fprintln(out)
	}
}

func printHelp() {
	fmt.Fprint(os.Stderr, `Clawe squad CLI.

Usage:
  clawe agent onboard <agent-id> <name> <role> [flags]
  clawe squad

Onboard flags:
  --emoji string   agent emoji (default 🤖)
  --cron string    heartbeat cron schedule (default "15,45 * * * *")
  --model string   model the agent runs on
  --type string    agent type: lead or worker (default worker)

Environment:
  CLAWE_BACKEND_URL     dashboard backend URL (default http://127.0.0.1:3210)
  CLAWE_TOKEN           bearer token for the backend
  CLAWE_GATEWAY_URL     gateway URL (default http://localhost:18789)
  CLAWE_GATEWAY_TOKEN   bearer token for the gateway
  CLAWE_DATA_DIR        workspace root (default /data)
  CLAWE_TEMPLATES_DIR   workspace templates (default /opt/clawe/templates)
`)
}
