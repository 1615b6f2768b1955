package build

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asrafilll/monoserve/internal/config"
)

func TestGraphFromConfig(t *testing.T) {
	cfg := &config.Config{
		Workspaces: []config.WorkspaceConfig{
			{Name: "shared", Path: "packages/shared", Build: "npm run build", Output: "dist"},
			{
				Name:      "app",
				Path:      "packages/app",
				Build:     "npm run build",
				Output:    "build",
				DependsOn: []string{"shared"},
				Env:       map[string]string{"NODE_ENV": "production"},
			},
		},
	}

	graph, err := GraphFromConfig(cfg)
	require.NoError(t, err)

	app, ok := graph.Lookup("app")
	require.True(t, ok)
	require.Equal(t, "packages/app", app.Path)
	require.Equal(t, "build", app.Output)
	require.Equal(t, []string{"shared"}, app.DependsOn)
	require.Equal(t, "production", app.Env["NODE_ENV"])
}

func TestGraphFromConfig_UnknownDependency(t *testing.T) {
	cfg := &config.Config{
		Workspaces: []config.WorkspaceConfig{
			{Name: "app", Path: "packages/app", Build: "npm run build", DependsOn: []string{"ghost"}},
		},
	}

	_, err := GraphFromConfig(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ghost")
}
