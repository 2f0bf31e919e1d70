// Package config loads the rlsgen configuration from .env files, the embedded
// application.yaml and RLSGEN_* environment overrides, and validates it before any work starts.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	dbconfig "github.com/tigerroll/rlsgen/pkg/batch/adapter/database/config"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const moduleName = "config"

// DefaultEnvFiles are read in order. Variables already set are never overwritten,
// so .env.local wins over .env and the process environment wins over both.
var DefaultEnvFiles = []string{".env.local", ".env"}

// databaseEnvVars maps DatabaseConfig field names to the variables application.yaml reads them from.
var databaseEnvVars = map[string]string{
	"host":     "PG_HOST",
	"port":     "PG_PORT",
	"user":     "PG_USER",
	"password": "PG_PASSWORD",
	"database": "PG_DATABASE",
}

// LoadConfig loads configuration in four layers: defaults, embedded YAML with
// ${VAR} placeholders expanded, RLSGEN_* overrides, then validation.
// Missing env files are tolerated.
func LoadConfig(envFiles []string, embeddedConfig EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	loadEnvFiles(envFiles)

	if expander == nil {
		expander = NewOsEnvironmentExpander()
	}
	expanded, err := expander.Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewBatchError(exception.ErrConfiguration, moduleName, "failed to expand environment placeholders", err, false)
	}

	cfg := NewConfig()
	cfg.EmbeddedConfig = embeddedConfig

	var yamlConfig Config
	if err := yaml.Unmarshal(expanded, &yamlConfig); err != nil {
		return nil, exception.NewBatchError(exception.ErrConfiguration, moduleName, "failed to unmarshal embedded config", err, false)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewBatchError(exception.ErrConfiguration, moduleName, "failed to load config from environment variables", err, false)
	}
	return cfg, nil
}

func loadEnvFiles(envFiles []string) {
	if envFiles == nil {
		envFiles = DefaultEnvFiles
	}
	for _, path := range envFiles {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Debugf("env file %s not loaded: %v", path, err)
			continue
		}
		logger.Debugf("Loaded env file %s", path)
	}
}

// Validate checks every setting the run cannot start without and reports all
// missing values in a single ConfigurationError.
func Validate(cfg *Config) error {
	var missing []string

	raw, ok := cfg.RLSGen.AdapterConfigs[cfg.RLSGen.Catalog.DBRef]
	if !ok {
		return exception.NewBatchErrorf(exception.ErrConfiguration, moduleName,
			"database configuration %q not found under rlsgen.database", cfg.RLSGen.Catalog.DBRef)
	}
	dbCfg, err := dbconfig.Decode(raw)
	if err != nil {
		return exception.NewBatchError(exception.ErrConfiguration, moduleName, "invalid database configuration", err, false)
	}
	for _, field := range dbCfg.MissingFields() {
		missing = append(missing, databaseEnvVars[field])
	}
	if cfg.RLSGen.Generation.APIKey == "" {
		missing = append(missing, "CLAUDE_API_KEY")
	}
	if len(missing) > 0 {
		return exception.NewBatchErrorf(exception.ErrConfiguration, moduleName,
			"missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch cfg.RLSGen.Output.OnCollision {
	case OnCollisionFail, OnCollisionOverwrite:
	default:
		return exception.NewBatchErrorf(exception.ErrConfiguration, moduleName,
			"output.on_collision must be %q or %q, got %q", OnCollisionFail, OnCollisionOverwrite, cfg.RLSGen.Output.OnCollision)
	}
	if cfg.RLSGen.Generation.Retry.MaxAttempts < 1 {
		return exception.NewBatchErrorf(exception.ErrConfiguration, moduleName,
			"generation.retry.max_attempts must be at least 1, got %d", cfg.RLSGen.Generation.Retry.MaxAttempts)
	}
	if cfg.RLSGen.Dispatcher.MaxWorkers < 0 {
		return exception.NewBatchErrorf(exception.ErrConfiguration, moduleName,
			"dispatcher.max_workers must not be negative, got %d", cfg.RLSGen.Dispatcher.MaxWorkers)
	}
	return nil
}

// mergeConfig copies every non-zero value of source over dest.
func mergeConfig(dest, source *Config) {
	mergeRLSGenConfig(&dest.RLSGen, &source.RLSGen)
}

func mergeRLSGenConfig(dest, source *RLSGenConfig) {
	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}

	if source.Catalog.DBRef != "" {
		dest.Catalog.DBRef = source.Catalog.DBRef
	}
	if source.Catalog.IgnoredSchemas != nil {
		dest.Catalog.IgnoredSchemas = source.Catalog.IgnoredSchemas
	}

	mergeGenerationConfig(&dest.Generation, &source.Generation)

	if source.Corpus.LocalDir != "" {
		dest.Corpus.LocalDir = source.Corpus.LocalDir
	}
	if source.Corpus.RemoteListingURL != "" {
		dest.Corpus.RemoteListingURL = source.Corpus.RemoteListingURL
	}
	if source.Corpus.DownloadConcurrency != 0 {
		dest.Corpus.DownloadConcurrency = source.Corpus.DownloadConcurrency
	}
	if source.Corpus.RequestTimeoutSeconds != 0 {
		dest.Corpus.RequestTimeoutSeconds = source.Corpus.RequestTimeoutSeconds
	}

	if source.Output.Dir != "" {
		dest.Output.Dir = source.Output.Dir
	}
	if source.Output.Extension != "" {
		dest.Output.Extension = source.Output.Extension
	}
	if source.Output.OnCollision != "" {
		dest.Output.OnCollision = source.Output.OnCollision
	}

	if source.Dispatcher.ReserveCoordinator {
		dest.Dispatcher.ReserveCoordinator = true
	}
	if source.Dispatcher.MaxWorkers != 0 {
		dest.Dispatcher.MaxWorkers = source.Dispatcher.MaxWorkers
	}

	if source.Metrics.Enabled {
		dest.Metrics.Enabled = true
	}
	if source.Metrics.TextfilePath != "" {
		dest.Metrics.TextfilePath = source.Metrics.TextfilePath
	}
	if source.Metrics.PushgatewayURL != "" {
		dest.Metrics.PushgatewayURL = source.Metrics.PushgatewayURL
	}

	if source.Tracing.Enabled {
		dest.Tracing.Enabled = true
	}
	if source.Tracing.ServiceName != "" {
		dest.Tracing.ServiceName = source.Tracing.ServiceName
	}
	if source.Tracing.OTLPEndpoint != "" {
		dest.Tracing.OTLPEndpoint = source.Tracing.OTLPEndpoint
	}

	if source.AdapterConfigs != nil {
		if dest.AdapterConfigs == nil {
			dest.AdapterConfigs = make(map[string]interface{})
		}
		for key, value := range source.AdapterConfigs {
			dest.AdapterConfigs[key] = value
		}
	}
}

func mergeGenerationConfig(dest, source *GenerationConfig) {
	if source.APIEndpoint != "" {
		dest.APIEndpoint = source.APIEndpoint
	}
	if source.APIKey != "" {
		dest.APIKey = source.APIKey
	}
	if source.APIVersion != "" {
		dest.APIVersion = source.APIVersion
	}
	if source.Model != "" {
		dest.Model = source.Model
	}
	if source.MaxTokens != 0 {
		dest.MaxTokens = source.MaxTokens
	}
	if source.Temperature != 0 {
		dest.Temperature = source.Temperature
	}
	if source.RequestTimeoutSeconds != 0 {
		dest.RequestTimeoutSeconds = source.RequestTimeoutSeconds
	}
	if source.Retry.MaxAttempts != 0 {
		dest.Retry.MaxAttempts = source.Retry.MaxAttempts
	}
	if source.Retry.InitialInterval != 0 {
		dest.Retry.InitialInterval = source.Retry.InitialInterval
	}
	if source.Retry.MaxInterval != 0 {
		dest.Retry.MaxInterval = source.Retry.MaxInterval
	}
	if source.Retry.Factor != 0 {
		dest.Retry.Factor = source.Retry.Factor
	}
	if source.Retry.Jitter != 0 {
		dest.Retry.Jitter = source.Retry.Jitter
	}
}

// loadStructFromEnv walks val and sets every field whose upper-cased yaml path
// is present in the environment, e.g. rlsgen.output.dir <- RLSGEN_OUTPUT_DIR.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		switch field.Kind() {
		case reflect.Struct:
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		case reflect.Map:
			// Named adapter settings come from application.yaml placeholders only.
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField converts value to the field's kind. Slices of strings are comma separated.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	}
	return nil
}
