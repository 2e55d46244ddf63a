package models

// MConfig Structure
type MConfig struct {
	Name           string            `yaml:"name"`
	Host           string            `yaml:"host"`
	Port           int               `yaml:"port"`
	LogLevel       string            `yaml:"log_level"`
	LogFile        string            `yaml:"log_file"`
	PollIntervalMs int               `yaml:"poll_interval_ms"`
	SymbolRoot     string            `yaml:"symbol_root"`
	Source         MSourceConfig     `yaml:"source"`
	Network        MNetworkConfig    `yaml:"network"`
	Supervisor     MSupervisorConfig `yaml:"supervisor"`
	Worker         MWorkerConfig     `yaml:"worker"`
	Storage        MStorageConfig    `yaml:"storage"`
}

type MSourceConfig struct {
	Type           string         `yaml:"type"` // "sim" or "http"
	BaseURL        string         `yaml:"base_url"`
	FieldTimeoutMs int            `yaml:"field_timeout_ms"` // 0 disables the per-field deadline
	Breaker        MBreakerConfig `yaml:"breaker"`
}

type MBreakerConfig struct {
	ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
	OpenTimeoutMs       int    `yaml:"open_timeout_ms"`
	HalfOpenRequests    uint32 `yaml:"half_open_requests"`
}

type MNetworkConfig struct {
	RequestTimeoutMs int    `yaml:"timeout_ms"`
	MaxRetries       int    `yaml:"retries"`
	UserAgent        string `yaml:"user_agent"`
}

type MSupervisorConfig struct {
	APIHost        string   `yaml:"api_host"`
	APIPort        int      `yaml:"api_port"`
	WorkerPath     string   `yaml:"worker_path"`
	WorkerArgs     []string `yaml:"worker_args"`
	GracePeriodMs  int      `yaml:"grace_period_ms"`
	RespawnDelayMs int      `yaml:"respawn_delay_ms"`
	LogHistory     int      `yaml:"log_history"`
}

type MWorkerConfig struct {
	LogFile string `yaml:"log_file"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // "sqlite", "postgres" or "none"
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}
