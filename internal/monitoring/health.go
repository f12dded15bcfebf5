package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// TopicHealth is the hub topic carrying health snapshots.
const TopicHealth = "health"

const (
	highCPUThreshold = 90.0
	alertCooldown    = 15 * time.Minute
)

// SampleFunc takes one sample of the host.
type SampleFunc func(ctx context.Context) (models.HealthSnapshot, error)

// HealthSampler periodically samples the host resources, keeps the latest
// snapshot for the dashboard and pushes it to live subscribers.
type HealthSampler struct {
	sample    SampleFunc
	eventSvc  services.EventServiceProvider
	publisher services.Publisher
	interval  time.Duration
	ticker    *time.Ticker
	done      chan bool
	now       func() time.Time

	mu        sync.RWMutex
	latest    *models.HealthSnapshot
	lastAlert time.Time
}

// DefaultHealthInterval replaces a non-positive sampling interval.
const DefaultHealthInterval = 15 * time.Second

// NewHealthSampler creates a sampler backed by gopsutil. publisher may be nil.
func NewHealthSampler(eventSvc services.EventServiceProvider, publisher services.Publisher, interval time.Duration) *HealthSampler {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	return &HealthSampler{
		sample:    HostSample("/"),
		eventSvc:  eventSvc,
		publisher: publisher,
		interval:  interval,
		done:      make(chan bool),
		now:       time.Now,
	}
}

// Run starts the periodic sampling.
func (hs *HealthSampler) Run() {
	log.Info().Dur("interval", hs.interval).Msg("Starting background health sampler...")
	hs.ticker = time.NewTicker(hs.interval)
	defer hs.ticker.Stop()

	// Run once immediately on start
	hs.tick()

	for {
		select {
		case <-hs.done:
			log.Info().Msg("Stopping background health sampler.")
			return
		case <-hs.ticker.C:
			hs.tick()
		}
	}
}

// Stop halts the periodic sampling.
func (hs *HealthSampler) Stop() {
	hs.done <- true
}

func (hs *HealthSampler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), hs.interval)
	defer cancel()
	if _, err := hs.Sample(ctx); err != nil {
		log.Warn().Err(err).Msg("HealthSampler: Failed to sample host")
	}
}

// Sample takes a fresh snapshot, stores it, publishes it and raises a CPU alert when needed.
func (hs *HealthSampler) Sample(ctx context.Context) (models.HealthSnapshot, error) {
	snap, err := hs.sample(ctx)
	if err != nil {
		return models.HealthSnapshot{}, err
	}
	snap.Status = classify(snap)
	if snap.SampledAt.IsZero() {
		snap.SampledAt = hs.now().UTC()
	}

	hs.mu.Lock()
	hs.latest = &snap
	hs.mu.Unlock()

	if hs.publisher != nil {
		hs.publisher.Publish(TopicHealth, snap)
	}
	hs.checkAndAlertForHighCPU(ctx, snap)
	return snap, nil
}

// Latest returns the most recent snapshot, sampling on demand when there is none yet.
func (hs *HealthSampler) Latest(ctx context.Context) (models.HealthSnapshot, error) {
	hs.mu.RLock()
	latest := hs.latest
	hs.mu.RUnlock()
	if latest != nil {
		return *latest, nil
	}
	return hs.Sample(ctx)
}

func (hs *HealthSampler) checkAndAlertForHighCPU(ctx context.Context, snap models.HealthSnapshot) {
	if snap.CPUPercent <= highCPUThreshold || hs.eventSvc == nil {
		return
	}

	hs.mu.Lock()
	if !hs.lastAlert.IsZero() && hs.now().Sub(hs.lastAlert) < alertCooldown {
		hs.mu.Unlock()
		return
	}
	hs.lastAlert = hs.now()
	hs.mu.Unlock()

	msg := fmt.Sprintf("High CPU usage (%.1f%%) detected on host '%s'.", snap.CPUPercent, snap.Hostname)
	if err := hs.eventSvc.CreateEvent(ctx, "system.alert.cpu", "warn", msg); err != nil {
		log.Error().Err(err).Msg("HealthSampler: Failed to record CPU alert")
	}
}

func classify(s models.HealthSnapshot) string {
	switch {
	case s.CPUPercent >= 90 || s.MemoryPercent >= 90 || s.DiskPercent >= 95:
		return "critical"
	case s.CPUPercent >= 75 || s.MemoryPercent >= 80 || s.DiskPercent >= 85:
		return "degraded"
	default:
		return "healthy"
	}
}

// HostSample samples this machine with gopsutil. diskPath is the mount point measured.
func HostSample(diskPath string) SampleFunc {
	return func(ctx context.Context) (models.HealthSnapshot, error) {
		var snap models.HealthSnapshot

		percents, err := cpu.PercentWithContext(ctx, 0, false)
		if err != nil {
			return snap, fmt.Errorf("cpu: %w", err)
		}
		if len(percents) > 0 {
			snap.CPUPercent = round1(percents[0])
		}

		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return snap, fmt.Errorf("memory: %w", err)
		}
		snap.MemoryPercent = round1(vm.UsedPercent)
		snap.MemoryUsed = humanize.IBytes(vm.Used)
		snap.MemoryTotal = humanize.IBytes(vm.Total)

		du, err := disk.UsageWithContext(ctx, diskPath)
		if err != nil {
			return snap, fmt.Errorf("disk: %w", err)
		}
		snap.DiskPercent = round1(du.UsedPercent)
		snap.DiskUsed = humanize.IBytes(du.Used)
		snap.DiskTotal = humanize.IBytes(du.Total)

		info, err := host.InfoWithContext(ctx)
		if err != nil {
			return snap, fmt.Errorf("host: %w", err)
		}
		snap.Hostname = info.Hostname
		snap.Platform = info.Platform + " " + info.PlatformVersion
		snap.Uptime = formatUptime(time.Duration(info.Uptime) * time.Second)
		return snap, nil
	}
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// formatUptime renders durations as "3d 4h 12m".
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
