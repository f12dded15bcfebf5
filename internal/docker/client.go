package docker

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/models"
)

// engine is the subset of the Docker API the dashboard needs.
type engine interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerStats(ctx context.Context, containerID string, stream bool) (container.StatsResponseReader, error)
	Close() error
}

// InfrastructureProvider reports the state of the deployment's containers.
type InfrastructureProvider interface {
	Status(ctx context.Context) models.InfrastructureStatus
}

// Client wraps the official Docker client to report on the deployment's containers.
type Client struct {
	cli   engine
	label string
}

// New creates a new Docker client wrapper listing containers carrying label.
func New(label string) (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Client{cli: cli, label: label}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.cli.Close()
}

// ListContainers lists all containers managed by this deployment.
func (c *Client) ListContainers(ctx context.Context) ([]container.Summary, error) {
	opts := container.ListOptions{All: true}
	if c.label != "" {
		opts.Filters = filters.NewArgs(filters.Arg("label", c.label))
	}
	return c.cli.ContainerList(ctx, opts)
}

// GetContainerStats returns a one-shot resource usage sample of a container.
func (c *Client) GetContainerStats(ctx context.Context, id string) (*container.StatsResponse, error) {
	stats, err := c.cli.ContainerStats(ctx, id, false) // false for not streaming
	if err != nil {
		return nil, err
	}
	defer stats.Body.Close()

	var statsJSON container.StatsResponse
	if err := json.NewDecoder(stats.Body).Decode(&statsJSON); err != nil && err != io.EOF {
		return nil, err
	}
	return &statsJSON, nil
}

// Status lists the containers with their resource usage. An unreachable daemon
// yields an unavailable status instead of an error.
func (c *Client) Status(ctx context.Context) models.InfrastructureStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	list, err := c.ListContainers(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Docker daemon unavailable")
		return Unavailable()
	}

	status := models.InfrastructureStatus{Available: true, Total: len(list), Containers: make([]models.ContainerStatus, 0, len(list))}
	for _, summary := range list {
		cs := models.ContainerStatus{
			ID:      shortID(summary.ID),
			Name:    containerName(summary.Names),
			Image:   summary.Image,
			State:   string(summary.State),
			Status:  summary.Status,
			Created: time.Unix(summary.Created, 0).UTC(),
		}
		if cs.State == "running" {
			status.Running++
			if stats, err := c.GetContainerStats(ctx, summary.ID); err == nil {
				cs.CPUPercent = CalculateCPUPercent(stats)
				cs.MemoryPercent = CalculateRAMPercent(stats)
			} else {
				log.Warn().Err(err).Str("container", cs.Name).Msg("Non-fatal error getting container stats")
			}
		}
		status.Containers = append(status.Containers, cs)
	}
	sort.Slice(status.Containers, func(i, j int) bool { return status.Containers[i].Name < status.Containers[j].Name })
	return status
}

// Unavailable is the status reported when Docker is disabled or unreachable.
func Unavailable() models.InfrastructureStatus {
	return models.InfrastructureStatus{Available: false, Containers: []models.ContainerStatus{}}
}

// Disabled reports Docker as unavailable without contacting any daemon.
type Disabled struct{}

// Status implements InfrastructureProvider.
func (Disabled) Status(context.Context) models.InfrastructureStatus {
	return Unavailable()
}

func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// CalculateCPUPercent calculates the CPU usage percentage from Docker stats.
func CalculateCPUPercent(stats *container.StatsResponse) float64 {
	cpuDelta := float64(stats.CPUStats.CPUUsage.TotalUsage) - float64(stats.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(stats.CPUStats.SystemUsage) - float64(stats.PreCPUStats.SystemUsage)
	onlineCPUs := float64(stats.CPUStats.OnlineCPUs)
	if onlineCPUs == 0.0 {
		onlineCPUs = float64(len(stats.CPUStats.CPUUsage.PercpuUsage))
	}

	if systemDelta > 0.0 && cpuDelta > 0.0 {
		return (cpuDelta / systemDelta) * onlineCPUs * 100.0
	}
	return 0.0
}

// CalculateRAMPercent calculates the RAM usage percentage from Docker stats.
func CalculateRAMPercent(stats *container.StatsResponse) float64 {
	if stats.MemoryStats.Limit > 0 {
		return float64(stats.MemoryStats.Usage) / float64(stats.MemoryStats.Limit) * 100.0
	}
	return 0.0
}
