package configuration

import "time"

// HubConfig mirrors hub.Config for the config file.
type HubConfig struct {
	MaxConnections int
	ErrorCeiling   int
	StaleAfter     time.Duration
	MaxAge         time.Duration
	SweepInterval  time.Duration
	SendBuffer     int
}

// EvalConfig is the application configuration, loaded via common.LoadConfig.
type EvalConfig struct {
	// Port serving the websocket subscriber endpoint. Zero disables it.
	HttpPort uint16
	// Port serving prometheus metrics. Zero disables it.
	MetricsPort uint16
	// Directory holding file-backed datasets (<name>.yaml).
	DatasetsDir string
	// How many jobs may run simultaneously; zero means unbounded.
	MaxParallelJobs int
	// Dashboard refresh cadence.
	RefreshInterval time.Duration

	Hub HubConfig
}

func DefaultConfig() *EvalConfig {
	return &EvalConfig{
		DatasetsDir:     "datasets",
		RefreshInterval: 5 * time.Second,
	}
}
