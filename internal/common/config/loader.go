// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and lets environment variables override any key.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	bindEnv(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func bindEnv(v *viper.Viper) {
	// providers.qloo.api_key <- PROVIDERS_QLOO_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in YAML string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills provider credentials from the conventional
// vendor variable names when the YAML left them empty.
func overrideEmptyConfig(cfg *Config) {
	fill := func(dst *string, envKey string) {
		if *dst == "" {
			if val := os.Getenv(envKey); val != "" {
				*dst = val
			}
		}
	}

	fill(&cfg.Providers.Qloo.APIKey, "QLOO_API_KEY")
	fill(&cfg.Providers.Amadeus.APIKey, "AMADEUS_API_KEY")
	fill(&cfg.Providers.Amadeus.APISecret, "AMADEUS_API_SECRET")
	fill(&cfg.Providers.Places.APIKey, "GOOGLE_PLACES_API_KEY")
	fill(&cfg.Providers.FactCheck.APIKey, "FACT_CHECK_API_KEY")
	fill(&cfg.Providers.YouTube.APIKey, "YOUTUBE_API_KEY")
	fill(&cfg.Providers.Instagram.APIKey, "RAPIDAPI_KEY")
	fill(&cfg.Providers.GenAI.APIKey, "GENAI_API_KEY")
	fill(&cfg.Providers.Email.FromEmail, "EMAIL_FROM")
	fill(&cfg.Providers.Email.Region, "AWS_REGION")
	fill(&cfg.Redis.Address, "REDIS_ADDRESS")
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "creator-trips"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.Recommendation.TopN == 0 {
		cfg.Recommendation.TopN = 3
	}
	if cfg.Recommendation.EnrichmentConcurrency == 0 {
		cfg.Recommendation.EnrichmentConcurrency = 4
	}
	if cfg.Recommendation.CacheTTL == 0 {
		cfg.Recommendation.CacheTTL = 3600
	}
	if cfg.Recommendation.BreakerFailures == 0 {
		cfg.Recommendation.BreakerFailures = 5
	}
	if cfg.Recommendation.BreakerTimeout == 0 {
		cfg.Recommendation.BreakerTimeout = 30000
	}

	if cfg.Interview.MaxQuestions == 0 {
		cfg.Interview.MaxQuestions = 5
	}

	for _, p := range []*ProviderConfig{
		&cfg.Providers.Qloo, &cfg.Providers.Amadeus, &cfg.Providers.Places,
		&cfg.Providers.FactCheck, &cfg.Providers.YouTube, &cfg.Providers.Instagram,
		&cfg.Providers.Email,
	} {
		if p.Timeout == 0 {
			p.Timeout = 10000
		}
	}
	if cfg.Providers.GenAI.Timeout == 0 {
		cfg.Providers.GenAI.Timeout = 8000
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Recommendation.TopN < 1 || cfg.Recommendation.TopN > 3 {
		return fmt.Errorf("recommendation.top_n must be between 1 and 3")
	}
	if cfg.Interview.MaxQuestions < 1 || cfg.Interview.MaxQuestions > 5 {
		return fmt.Errorf("interview.max_questions must be between 1 and 5")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled; unknown workers are on.
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
