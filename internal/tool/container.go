// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Container runs converter binaries inside a container image through docker
// or podman. The command's working directory is bind-mounted at the same
// path, so input and output paths under it stay valid inside the container.
type Container struct {
	bin           string
	imageCheckCmd []string
	image         string
	local         *Local

	once     sync.Once
	imageErr error
}

func newDockerContainer(exec executor, image string, timeout time.Duration) *Container {
	return &Container{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		image:         image,
		local:         newLocal(exec, timeout),
	}
}

func newPodmanContainer(exec executor, image string, timeout time.Duration) *Container {
	return &Container{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		image:         image,
		local:         newLocal(exec, timeout),
	}
}

// Name returns the container runtime binary ("docker" or "podman").
func (c *Container) Name() string { return c.bin }

// Image returns the image commands run in.
func (c *Container) Image() string { return c.image }

// available reports whether the runtime binary exists and responds to info.
func (c *Container) available() bool {
	if _, err := c.local.LookPath(c.bin); err != nil {
		return false
	}
	return c.local.Run(context.Background(), Command{Name: c.bin, Args: []string{"info"}}) == nil
}

// ImageExists checks whether the configured image exists locally.
func (c *Container) ImageExists(ctx context.Context) error {
	args := make([]string, 0, len(c.imageCheckCmd)+1)
	args = append(args, c.imageCheckCmd...)
	args = append(args, c.image)
	if err := c.local.Run(ctx, Command{Name: c.bin, Args: args}); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", c.image, c.bin, err)
	}
	return nil
}

// LookPath assumes every converter is installed in the image; it only
// verifies the image itself, once.
func (c *Container) LookPath(name string) (string, error) {
	c.once.Do(func() { c.imageErr = c.ImageExists(context.Background()) })
	if c.imageErr != nil {
		return "", c.imageErr
	}
	return name, nil
}

func (c *Container) Run(ctx context.Context, cmd Command) error {
	args := []string{"run", "--rm"}
	if cmd.Dir != "" {
		args = append(args, "-v", cmd.Dir+":"+cmd.Dir, "-w", cmd.Dir)
	}
	args = append(args, c.image, cmd.Name)
	args = append(args, cmd.Args...)
	return c.local.Run(ctx, Command{Name: c.bin, Args: args})
}

// DetectContainer tries docker first and falls back to podman. It returns an
// error if neither runtime is available.
func DetectContainer(image string, timeout time.Duration) (*Container, error) {
	return detectContainer(&osExecutor{}, image, timeout)
}

func detectContainer(exec executor, image string, timeout time.Duration) (*Container, error) {
	docker := newDockerContainer(exec, image, timeout)
	if docker.available() {
		return docker, nil
	}

	podman := newPodmanContainer(exec, image, timeout)
	if podman.available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
