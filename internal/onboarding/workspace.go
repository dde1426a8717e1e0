package onboarding

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"clawe/internal/gateway"
	"clawe/internal/models"
	"clawe/internal/services"
)

// WorkspaceConfig locates template sources and the workspace root.
// Store is optional: when set, per-agent overlay files are fetched from
// the bucket instead of the local workspaces directory.
type WorkspaceConfig struct {
	DataDir      string
	TemplatesDir string
	Store        services.TemplateStore
	Bucket       string
}

func renderTemplate(content string, opts Options) string {
	replacer := strings.NewReplacer(
		"${AGENT_ID}", opts.AgentID,
		"${AGENT_NAME}", opts.Name,
		"${AGENT_EMOJI}", opts.Emoji,
		"${AGENT_ROLE}", opts.Role,
	)
	return replacer.Replace(content)
}

func defaultSoul(opts Options) string {
	return fmt.Sprintf(`# SOUL.md — Who You Are

You are **%s**, the %s. %s

## Role

You're a specialist agent in the Clawe squad.

## Task Discipline

⚠️ **Follow task workflow COMPLETELY:**
- Do NOT move to "review" until ALL subtasks are done
- Register deliverables with `+"`clawe deliver`"+`
- Only submit for review when work is truly complete
`, opts.Name, opts.Role, opts.Emoji)
}

func minimalAgentsFile(sessionKey string) string {
	return fmt.Sprintf("# AGENTS.md\n\nSession key: %s\n\nRun `clawe check %s` on wake.\n", sessionKey, sessionKey)
}

// Build creates and populates the agent workspace. Base templates are
// rendered with variable substitution, then agent-specific files overlay
// them, then the shared directory is linked in.
func (w WorkspaceConfig) Build(ctx context.Context, opts Options, out io.Writer) error {
	wsDir := gateway.WorkspacePath(w.DataDir, opts.AgentType, opts.AgentID)

	if err := os.MkdirAll(filepath.Join(wsDir, "memory"), 0o755); err != nil {
		return err
	}

	baseDir := filepath.Join(w.TemplatesDir, "base", opts.AgentType)
	entries, err := os.ReadDir(baseDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			content, err := os.ReadFile(filepath.Join(baseDir, entry.Name()))
			if err != nil {
				return err
			}
			rendered := renderTemplate(string(content), opts)
			if err := os.WriteFile(filepath.Join(wsDir, entry.Name()), []byte(rendered), 0o644); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, "   ✓ Base templates generated")
	} else {
		fmt.Fprintf(out, "   ⚠ Base templates not found at %s, creating minimal workspace\n", baseDir)
		sessionKey := models.SessionKey(opts.AgentID)
		if err := os.WriteFile(filepath.Join(wsDir, "AGENTS.md"), []byte(minimalAgentsFile(sessionKey)), 0o644); err != nil {
			return err
		}
	}

	overlaid, err := w.applyAgentOverlay(ctx, opts, wsDir)
	if err != nil {
		return err
	}
	if overlaid {
		fmt.Fprintln(out, "   ✓ Agent-specific files copied")
	} else {
		if err := os.WriteFile(filepath.Join(wsDir, "SOUL.md"), []byte(defaultSoul(opts)), 0o644); err != nil {
			return err
		}
		fmt.Fprintln(out, "   ✓ Default SOUL.md created")
	}

	sharedLink := filepath.Join(wsDir, "shared")
	sharedTarget := filepath.Join(w.DataDir, "shared")
	if _, err := os.Lstat(sharedLink); os.IsNotExist(err) {
		if _, err := os.Stat(sharedTarget); err == nil {
			if err := os.Symlink(sharedTarget, sharedLink); err != nil {
				return err
			}
			fmt.Fprintln(out, "   ✓ Shared directory linked")
		}
	}

	fmt.Fprintf(out, "   ✓ Workspace created at %s\n", wsDir)
	return nil
}

// applyAgentOverlay copies per-agent files over the rendered base. The
// object store takes precedence over the local workspaces directory.
func (w WorkspaceConfig) applyAgentOverlay(ctx context.Context, opts Options, wsDir string) (bool, error) {
	if w.Store != nil && w.Bucket != "" {
		names, err := w.Store.ListAgentFiles(ctx, w.Bucket, opts.AgentID)
		if err != nil {
			return false, err
		}
		if len(names) == 0 {
			return false, nil
		}
		for _, name := range names {
			data, err := w.Store.FetchFile(ctx, w.Bucket, name)
			if err != nil {
				return false, err
			}
			if err := os.WriteFile(filepath.Join(wsDir, filepath.Base(name)), data, 0o644); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	agentDir := filepath.Join(w.TemplatesDir, "workspaces", opts.AgentID)
	entries, err := os.ReadDir(agentDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(agentDir, entry.Name()))
		if err != nil {
			return false, err
		}
		if err := os.WriteFile(filepath.Join(wsDir, entry.Name()), data, 0o644); err != nil {
			return false, err
		}
	}
	return true, nil
}
