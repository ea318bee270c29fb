// Package diagnostics builds support bundles: system and runtime facts,
// redacted configuration, plugin health and record counts.
package diagnostics

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/jscorp/hostpanel/internal/config"
	"github.com/jscorp/hostpanel/internal/plugins"
	"github.com/jscorp/hostpanel/internal/stats"
)

// StatsSource computes the record counters included in a bundle.
type StatsSource interface {
	GetStats(ctx context.Context) (stats.Stats, error)
}

// HealthChecker reports plugin health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) []plugins.HealthStatus
}

// Collector gathers diagnostic information from the system.
type Collector struct {
	config  *config.Config
	health  HealthChecker
	stats   StatsSource
	started time.Time
	now     func() time.Time
}

// NewCollector creates a new diagnostics collector.
func NewCollector(cfg *config.Config, health HealthChecker, source StatsSource, started time.Time) *Collector {
	return &Collector{
		config:  cfg,
		health:  health,
		stats:   source,
		started: started,
		now:     time.Now,
	}
}

// Bundle represents a complete diagnostics bundle.
type Bundle struct {
	GeneratedAt time.Time      `json:"generated_at"`
	System      SystemInfo     `json:"system"`
	Config      RedactedConfig `json:"config"`
	Health      HealthSummary  `json:"health"`
	Records     RecordSummary  `json:"records"`
	Runtime     RuntimeInfo    `json:"runtime"`
}

// SystemInfo contains basic system information.
type SystemInfo struct {
	GoVersion     string  `json:"go_version"`
	GOOS          string  `json:"goos"`
	GOARCH        string  `json:"goarch"`
	NumCPU        int     `json:"num_cpu"`
	Hostname      string  `json:"hostname"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// RedactedConfig is the configuration without passwords, keys or DSNs.
type RedactedConfig struct {
	Port             int     `json:"port"`
	Storage          string  `json:"storage"`
	DB               string  `json:"db,omitempty"`
	BadgerDir        string  `json:"badger_dir,omitempty"`
	S3Bucket         string  `json:"s3_bucket,omitempty"`
	S3Region         string  `json:"s3_region,omitempty"`
	S3Endpoint       string  `json:"s3_endpoint,omitempty"`
	S3Prefix         string  `json:"s3_prefix,omitempty"`
	AdminUsername    string  `json:"admin_username"`
	SessionSecretSet bool    `json:"session_secret_set"`
	SessionTTL       string  `json:"session_ttl"`
	RememberTTL      string  `json:"remember_ttl"`
	LoginRateLimit   float64 `json:"login_rate_limit"`
	LoginBurst       int     `json:"login_burst"`
	Seed             bool    `json:"seed"`
	SeedFile         string  `json:"seed_file,omitempty"`
	LogLevel         string  `json:"log_level"`
	LogFormat        string  `json:"log_format"`
}

// HealthSummary contains the overall health status.
type HealthSummary struct {
	Overall string                 `json:"overall"`
	Plugins []plugins.HealthStatus `json:"plugins"`
}

// RecordSummary holds the dashboard counters, or the error that prevented
// reading them.
type RecordSummary struct {
	Stats *stats.Stats `json:"stats,omitempty"`
	Error string       `json:"error,omitempty"`
}

// RuntimeInfo contains Go runtime information.
type RuntimeInfo struct {
	NumGoroutine int         `json:"num_goroutine"`
	Memory       MemoryStats `json:"memory"`
}

// MemoryStats contains memory statistics.
type MemoryStats struct {
	AllocMB      float64 `json:"alloc_mb"`
	TotalAllocMB float64 `json:"total_alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	NumGC        uint32  `json:"num_gc"`
}

// Collect gathers all diagnostic information into a Bundle.
func (c *Collector) Collect(ctx context.Context) *Bundle {
	return &Bundle{
		GeneratedAt: c.now().UTC(),
		System:      c.collectSystemInfo(),
		Config:      c.collectRedactedConfig(),
		Health:      c.collectHealth(ctx),
		Records:     c.collectRecords(ctx),
		Runtime:     collectRuntimeInfo(),
	}
}

// WriteTarGz writes the diagnostics bundle as a tar.gz archive to the given writer.
func (c *Collector) WriteTarGz(ctx context.Context, w io.Writer) error {
	bundle := c.Collect(ctx)

	gzw := gzip.NewWriter(w)
	defer gzw.Close()

	tw := tar.NewWriter(gzw)
	defer tw.Close()

	sections := []struct {
		name string
		data any
	}{
		{"diagnostics/bundle.json", bundle},
		{"diagnostics/system.json", bundle.System},
		{"diagnostics/config.json", bundle.Config},
		{"diagnostics/health.json", bundle.Health},
		{"diagnostics/records.json", bundle.Records},
		{"diagnostics/runtime.json", bundle.Runtime},
	}
	for _, s := range sections {
		jsonData, err := json.MarshalIndent(s.data, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", s.name, err)
		}
		if err := addFileToTar(tw, s.name, jsonData, bundle.GeneratedAt); err != nil {
			return fmt.Errorf("adding %s to archive: %w", s.name, err)
		}
	}
	return nil
}

func addFileToTar(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:    name,
		Size:    int64(len(data)),
		Mode:    0644,
		ModTime: modTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

func (c *Collector) collectSystemInfo() SystemInfo {
	hostname, _ := os.Hostname()
	uptime := c.now().Sub(c.started)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		GOOS:          runtime.GOOS,
		GOARCH:        runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		Hostname:      hostname,
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: uptime.Seconds(),
	}
}

func (c *Collector) collectRedactedConfig() RedactedConfig {
	cfg := c.config
	rc := RedactedConfig{
		Port:             cfg.Port,
		Storage:          cfg.Storage,
		AdminUsername:    cfg.AdminUsername,
		SessionSecretSet: cfg.SessionSecret != "",
		SessionTTL:       cfg.SessionTTL.String(),
		RememberTTL:      cfg.RememberTTL.String(),
		LoginRateLimit:   cfg.LoginRateLimit,
		LoginBurst:       cfg.LoginBurst,
		Seed:             cfg.Seed,
		SeedFile:         cfg.SeedFile,
		LogLevel:         cfg.LogLevel,
		LogFormat:        cfg.LogFormat,
	}
	switch cfg.Storage {
	case "sqlite":
		rc.DB = cfg.DB
	case "badger":
		rc.BadgerDir = cfg.BadgerDir
	case "s3":
		rc.S3Bucket = cfg.S3Bucket
		rc.S3Region = cfg.S3Region
		rc.S3Endpoint = cfg.S3Endpoint
		rc.S3Prefix = cfg.S3Prefix
	}
	return rc
}

func (c *Collector) collectHealth(ctx context.Context) HealthSummary {
	summary := HealthSummary{Overall: "healthy"}
	if c.health == nil {
		return summary
	}
	summary.Plugins = c.health.HealthCheck(ctx)
	for _, ps := range summary.Plugins {
		if !ps.Healthy {
			summary.Overall = "degraded"
		}
	}
	return summary
}

func (c *Collector) collectRecords(ctx context.Context) RecordSummary {
	if c.stats == nil {
		return RecordSummary{}
	}
	st, err := c.stats.GetStats(ctx)
	if err != nil {
		return RecordSummary{Error: err.Error()}
	}
	return RecordSummary{Stats: &st}
}

func collectRuntimeInfo() RuntimeInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeInfo{
		NumGoroutine: runtime.NumGoroutine(),
		Memory: MemoryStats{
			AllocMB:      float64(memStats.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(memStats.Sys) / 1024 / 1024,
			NumGC:        memStats.NumGC,
		},
	}
}
