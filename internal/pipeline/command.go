package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"

	"github.com/asrafilll/monoserve/internal/workspace"
)

// CommandRunner executes a workspace's build command. Implementations must
// honor context cancellation by terminating the command.
type CommandRunner interface {
	// Run executes the build command for the workspace and returns the
	// combined stdout/stderr output. On failure the returned error already
	// includes the command output.
	Run(ctx context.Context, ws *workspace.Workspace) (string, error)
}

// ShellRunner runs build commands through the platform shell, mirroring how
// package.json scripts are invoked.
type ShellRunner struct{}

// Run executes ws.Build with the workspace path as working directory. The
// parent environment is inherited and extended with the workspace's Env
// entries, which take precedence over inherited values.
func (ShellRunner) Run(ctx context.Context, ws *workspace.Workspace) (string, error) {
	shell, flag := platformShell()

	cmd := exec.CommandContext(ctx, shell, flag, ws.Build)
	cmd.Dir = ws.Path
	cmd.Env = append(os.Environ(), envList(ws.Env)...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return output.String(), fmt.Errorf("build command canceled: %w", ctx.Err())
		}
		return output.String(), fmt.Errorf("build command failed: %w: %s", err, bytes.TrimSpace(output.Bytes()))
	}

	return output.String(), nil
}

func platformShell() (string, string) {
	if runtime.GOOS == "windows" {
		return "cmd", "/C"
	}
	return "/bin/sh", "-c"
}

// envList flattens a workspace env map into KEY=VALUE pairs in a stable
// order so repeated runs see an identical environment.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}
