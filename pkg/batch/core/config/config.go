package config

// EmbeddedConfig holds the content of the application.yaml compiled into the binary.
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelSilent LogLevel = "SILENT"
)

// Collision policies for artifact file names.
const (
	OnCollisionFail      = "fail"
	OnCollisionOverwrite = "overwrite"
)

// RetryConfig holds the backoff settings of the generation client.
type RetryConfig struct {
	MaxAttempts     int     `yaml:"max_attempts"`     // MaxAttempts is the total number of attempts, including the first.
	InitialInterval int     `yaml:"initial_interval"` // InitialInterval is the backoff base in milliseconds.
	MaxInterval     int     `yaml:"max_interval"`     // MaxInterval caps a single delay, in milliseconds.
	Factor          float64 `yaml:"factor"`           // Factor is the exponential growth factor.
	Jitter          int     `yaml:"jitter"`           // Jitter is the upper bound of the random delay added per attempt, in milliseconds.
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds process-wide settings.
type SystemConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// CatalogConfig selects the database connection used for introspection and the schemas it skips.
type CatalogConfig struct {
	// DBRef is the key under rlsgen.database holding the connection settings.
	DBRef string `yaml:"db_ref"`
	// IgnoredSchemas are never returned by the schema query.
	IgnoredSchemas []string `yaml:"ignored_schemas"`
}

// GenerationConfig holds the text-generation endpoint settings.
type GenerationConfig struct {
	APIEndpoint           string      `yaml:"api_endpoint"`
	APIKey                string      `yaml:"api_key"`
	APIVersion            string      `yaml:"api_version"`
	Model                 string      `yaml:"model"`
	MaxTokens             int         `yaml:"max_tokens"`
	Temperature           float64     `yaml:"temperature"`
	RequestTimeoutSeconds int         `yaml:"request_timeout_seconds"`
	Retry                 RetryConfig `yaml:"retry"`
}

// CorpusConfig locates the reference documents.
type CorpusConfig struct {
	// LocalDir is read when it exists.
	LocalDir string `yaml:"local_dir"`
	// RemoteListingURL is a directory listing in the GitHub contents API format, used when LocalDir is absent.
	RemoteListingURL string `yaml:"remote_listing_url"`
	// DownloadConcurrency bounds parallel remote downloads.
	DownloadConcurrency   int `yaml:"download_concurrency"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
	// OnCollision is "fail" or "overwrite".
	OnCollision string `yaml:"on_collision"`
}

// DispatcherConfig sizes the worker pool.
type DispatcherConfig struct {
	// ReserveCoordinator leaves one unit of host parallelism to the coordinating goroutine.
	ReserveCoordinator bool `yaml:"reserve_coordinator"`
	// MaxWorkers replaces host parallelism when positive.
	MaxWorkers int `yaml:"max_workers"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// TextfilePath receives a node-exporter textfile dump at the end of the run when set.
	TextfilePath string `yaml:"textfile_path"`
	// PushgatewayURL receives the registry at the end of the run when set.
	PushgatewayURL string `yaml:"pushgateway_url"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	// OTLPEndpoint is the host:port of an OTLP/HTTP collector. Spans stay in-process when empty.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// RLSGenConfig holds all configuration under the "rlsgen" top-level key.
type RLSGenConfig struct {
	System     SystemConfig     `yaml:"system"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Generation GenerationConfig `yaml:"generation"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Output     OutputConfig     `yaml:"output"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
	// AdapterConfigs holds named database connection settings, decoded by the database adapter.
	AdapterConfigs map[string]interface{} `yaml:"database"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	RLSGen RLSGenConfig `yaml:"rlsgen"`
	// EmbeddedConfig holds the raw YAML the configuration was loaded from.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// DefaultIgnoredSchemas are platform schemas that never hold application tables.
var DefaultIgnoredSchemas = []string{
	"extensions",
	"graphql",
	"graphql_public",
	"information_schema",
	"pg_bouncer",
	"pg_catalog",
	"pgtle",
	"pgsodium",
	"pgsodium_masks",
	"supabase_migrations",
	"test_overrides",
	"tests",
	"vault",
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		RLSGen: RLSGenConfig{
			System: SystemConfig{
				Logging: LoggingConfig{Level: string(LogLevelInfo)},
			},
			Catalog: CatalogConfig{
				DBRef:          "catalog",
				IgnoredSchemas: append([]string(nil), DefaultIgnoredSchemas...),
			},
			Generation: GenerationConfig{
				APIEndpoint:           "https://api.anthropic.com/v1",
				APIVersion:            "2023-06-01",
				Model:                 "claude-3-5-sonnet-latest",
				MaxTokens:             2048,
				Temperature:           0,
				RequestTimeoutSeconds: 120,
				Retry: RetryConfig{
					MaxAttempts:     5,
					InitialInterval: 1000,
					MaxInterval:     30000,
					Factor:          2,
					Jitter:          1000,
				},
			},
			Corpus: CorpusConfig{
				LocalDir:              "./corpus",
				RemoteListingURL:      "https://api.github.com/repos/xaac-ai/rls-scope/contents/corpus",
				DownloadConcurrency:   4,
				RequestTimeoutSeconds: 30,
			},
			Output: OutputConfig{
				Dir:         "./supabase/tests",
				Extension:   ".sql",
				OnCollision: OnCollisionFail,
			},
			Tracing: TracingConfig{
				ServiceName: "rlsgen",
			},
			AdapterConfigs: map[string]interface{}{},
		},
	}
}
