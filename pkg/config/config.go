// Package config defines the configuration surface of the collection
// orchestrator core (spec §6). It holds plain, yaml-tagged structs and
// a no-I/O Validate/Default pair. Parsing a config file or environment
// into this struct, and resolving credentials, are the calling layer's
// job — this package never touches disk or the environment.
package config

import "time"

// Config is the full recognized option set consumed by the core.
type Config struct {
	Workspace     Workspace     `yaml:"workspace"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	Timeouts      Timeouts      `yaml:"timeouts"`
	Retry         Retry         `yaml:"retry"`
	Upload        Upload        `yaml:"upload"`
	Proxy         Proxy         `yaml:"proxy"`
	HostEntries   []HostEntry   `yaml:"host_entries"`
	RunDurations  RunDurations  `yaml:"run_durations"`
}

// Workspace is the host-side base directory per platform family.
type Workspace struct {
	Windows string `yaml:"windows"`
	Unix    string `yaml:"unix"`
}

// Timeouts collects every tunable duration named in §4.3's table.
type Timeouts struct {
	SessionIdle time.Duration `yaml:"session_idle"`
	Pulse       time.Duration `yaml:"pulse"`
	Command     time.Duration `yaml:"command"`
	ProgressPoll time.Duration `yaml:"progress_poll"`
	Stability   time.Duration `yaml:"stability"`
	Primary     time.Duration `yaml:"primary"`
	Secondary   time.Duration `yaml:"secondary"`
	Fetch       time.Duration `yaml:"fetch"`
	Upload      time.Duration `yaml:"upload"`
}

// Retry is the capped exponential backoff policy shared by the RTR
// façade and the object-store uploader.
type Retry struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
	Factor      float64       `yaml:"factor"`
}

// Upload tunes the object-store multipart uploader.
type Upload struct {
	MultipartThreshold int64 `yaml:"multipart_threshold"`
	ChunkSize          int64 `yaml:"chunk_size"`
	MaxConcurrency     int   `yaml:"max_concurrency"`
}

// Proxy optionally routes the object-store uploader through an HTTP
// forward proxy, for hosts on restricted networks.
type Proxy struct {
	Host    string `yaml:"host"`
	Enabled bool   `yaml:"enabled"`
}

// HostEntry is one key/value line appended to the host's local
// name-resolution file ahead of upload, to support split-horizon S3.
type HostEntry struct {
	IP       string `yaml:"ip"`
	Hostname string `yaml:"hostname"`
}

// RunDurations is the per-tool-profile cap on RUN_MONITOR, since the
// same tool may legitimately run far longer on a large disk than a
// small one (spec §4.3: "profile-dependent", 1200-21600s).
type RunDurations struct {
	KAPE           time.Duration `yaml:"kape"`
	UAC            time.Duration `yaml:"uac"`
	BrowserHistory time.Duration `yaml:"browser_history"`
}

// Default returns the configuration populated with every default from
// spec.md §4.3's tunables table.
func Default() Config {
	return Config{
		Workspace: Workspace{
			Windows: `C:\0x4n6nerd`,
			Unix:    "/opt/0x4n6nerd",
		},
		MaxConcurrent: 20,
		Timeouts: Timeouts{
			SessionIdle:  600 * time.Second,
			Pulse:        300 * time.Second,
			Command:      120 * time.Second,
			ProgressPoll: 30 * time.Second,
			Stability:    15 * time.Second,
			Primary:      300 * time.Second,
			Secondary:    600 * time.Second,
			Fetch:        18000 * time.Second,
			Upload:       3600 * time.Second,
		},
		Retry: Retry{
			MaxAttempts: 5,
			BaseBackoff: 1 * time.Second,
			MaxBackoff:  30 * time.Second,
			Factor:      2,
		},
		Upload: Upload{
			MultipartThreshold: 100 << 20, // 100 MiB
			ChunkSize:          10 << 20,  // 10 MiB
			MaxConcurrency:     4,
		},
		Proxy: Proxy{},
		RunDurations: RunDurations{
			KAPE:           6 * time.Hour,
			UAC:            20 * time.Minute,
			BrowserHistory: 20 * time.Minute,
		},
	}
}

// Validate checks internal consistency of the configuration. It does
// not touch the filesystem or the network: credential resolution and
// reachability checks belong to the calling layer.
func (c Config) Validate() error {
	if c.MaxConcurrent <= 0 {
		return errConfig("max_concurrent must be positive")
	}
	if c.Workspace.Windows == "" || c.Workspace.Unix == "" {
		return errConfig("workspace.windows and workspace.unix are required")
	}
	if c.Retry.MaxAttempts <= 0 {
		return errConfig("retry.max_attempts must be positive")
	}
	if c.Retry.BaseBackoff <= 0 || c.Retry.MaxBackoff < c.Retry.BaseBackoff {
		return errConfig("retry.base_backoff must be positive and <= max_backoff")
	}
	if c.Retry.Factor <= 1 {
		return errConfig("retry.factor must be greater than 1")
	}
	if c.Upload.MultipartThreshold <= 0 || c.Upload.ChunkSize <= 0 {
		return errConfig("upload.multipart_threshold and upload.chunk_size must be positive")
	}
	if c.Upload.MaxConcurrency <= 0 {
		return errConfig("upload.max_concurrency must be positive")
	}
	if c.Proxy.Enabled && c.Proxy.Host == "" {
		return errConfig("proxy.host is required when proxy.enabled is true")
	}
	return nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

func errConfig(msg string) error { return validationError(msg) }
