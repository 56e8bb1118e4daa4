package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	img "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// containerAPI is the part of *client.Client that Docker.Run uses.
type containerAPI interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	Close() error
}

// WorkMount is where the host working directory appears in the container.
const WorkMount = "/work"

// Docker runs executables inside a container created from Image, with the
// host directory Workdir bind-mounted at WorkMount as the working directory.
// Relative executable paths therefore resolve the same way they do for Exec.
// Requires DOCKER_HOST (or the default socket) to reach a daemon.
type Docker struct {
	cli     containerAPI
	Image   string
	Workdir string
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewDocker connects to the docker daemon and pulls image.
func NewDocker(ctx context.Context, image, workdir string) (*Docker, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("cannot reach docker daemon (%s): %w", os.Getenv("DOCKER_HOST"), err)
	}
	log.Println("runner: docker daemon reachable")

	abs, err := filepath.Abs(workdir)
	if err != nil {
		return nil, err
	}
	if err := pullIfNeeded(ctx, cli, image); err != nil {
		return nil, fmt.Errorf("pull test image %s: %w", image, err)
	}
	log.Println("runner: using image", image, "with", abs, "mounted at", WorkMount)
	return &Docker{cli: cli, Image: image, Workdir: abs}, nil
}

// Close releases the docker client.
func (d *Docker) Close() error {
	return d.cli.Close()
}

// Run creates a one-shot container for path, waits for it to exit, then
// copies its logs to Stdout and Stderr.
func (d *Docker) Run(ctx context.Context, path string, args []string) (int, error) {
	cmd := append([]string{path}, args...)
	create, err := d.cli.ContainerCreate(ctx, &container.Config{
		Image:      d.Image,
		Cmd:        cmd,
		WorkingDir: WorkMount,
		Tty:        false,
	}, &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: d.Workdir,
			Target: WorkMount,
		}},
	}, nil, nil, "")
	if err != nil {
		return -1, fmt.Errorf("create: %w", err)
	}
	cid := create.ID
	defer func() {
		timeout := 5
		_ = d.cli.ContainerStop(context.Background(), cid, container.StopOptions{Timeout: &timeout})
		_ = d.cli.ContainerRemove(context.Background(), cid, container.RemoveOptions{Force: true})
	}()

	if err := d.cli.ContainerStart(ctx, cid, container.StartOptions{}); err != nil {
		return -1, fmt.Errorf("start %s: %w", strings.Join(cmd, " "), err)
	}

	var exitCode int
	statusCh, errCh := d.cli.ContainerWait(ctx, cid, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err == nil {
			err = errors.New("no exit status")
		}
		return -1, fmt.Errorf("wait: %w", err)
	case st := <-statusCh:
		exitCode = int(st.StatusCode)
		if st.Error != nil && st.Error.Message != "" {
			return exitCode, fmt.Errorf("wait: %s", st.Error.Message)
		}
	}

	if err := d.copyLogs(ctx, cid); err != nil {
		log.Printf("runner: logs of %s: %v", strings.Join(cmd, " "), err)
	}
	return exitCode, nil
}

func (d *Docker) copyLogs(ctx context.Context, cid string) error {
	logs, err := d.cli.ContainerLogs(ctx, cid, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return err
	}
	defer logs.Close()
	var sb bytes.Buffer
	if _, err := io.Copy(&sb, logs); err != nil {
		return err
	}
	// The log stream is multiplexed unless the container has a TTY.
	_, err = stdcopy.StdCopy(orDefault(d.Stdout, os.Stdout), orDefault(d.Stderr, os.Stderr), bytes.NewReader(sb.Bytes()))
	return err
}

func pullIfNeeded(ctx context.Context, cli *client.Client, image string) error {
	if _, err := cli.ImageInspect(ctx, imageRef(image)); err == nil {
		return nil
	}
	reader, err := cli.ImagePull(ctx, imageRef(image), img.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader) // eat the progress stream
	return nil
}

func imageRef(img string) string {
	// allow "gcc:13", "example/autolab:latest", etc.
	if strings.Contains(img, "/") || strings.Contains(img, ":") {
		return img
	}
	return "docker.io/library/" + img + ":latest"
}
