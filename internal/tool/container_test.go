// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectContainer(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "docker on PATH but info fails, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name:    "neither available",
			exec:    &mockExecutor{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := detectContainer(tt.exec, "zconvert-tools:latest", time.Second)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "no container runtime available")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.Name())
		})
	}
}

func TestContainerLookPath(t *testing.T) {
	exec := &mockExecutor{runnableCmds: map[string]bool{"podman image exists tools:1": true}}
	c := newPodmanContainer(exec, "tools:1", time.Second)

	got, err := c.LookPath("pandoc")
	require.NoError(t, err)
	assert.Equal(t, "pandoc", got)

	_, err = c.LookPath("vips")
	require.NoError(t, err)
	assert.Len(t, exec.calls, 1, "image existence is checked once")

	missing := newDockerContainer(&mockExecutor{}, "tools:1", time.Second)
	_, err = missing.LookPath("pandoc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tools:1")
}

func TestContainerRun(t *testing.T) {
	var gotName string
	var gotArgs []string
	exec := &mockExecutor{runFunc: func(_ context.Context, _, name string, args []string, _ io.Writer) error {
		gotName = name
		gotArgs = args
		return nil
	}}
	c := newDockerContainer(exec, "tools:1", time.Second)

	err := c.Run(context.Background(), Command{
		Name: "pandoc",
		Args: []string{"-f", "markdown", "/ws/in.md", "-o", "/ws/out.html"},
		Dir:  "/ws",
	})
	require.NoError(t, err)
	assert.Equal(t, "docker", gotName)
	assert.Equal(t, []string{
		"run", "--rm", "-v", "/ws:/ws", "-w", "/ws", "tools:1",
		"pandoc", "-f", "markdown", "/ws/in.md", "-o", "/ws/out.html",
	}, gotArgs)
}
