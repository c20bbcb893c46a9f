// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig               `mapstructure:"app"`
	Camunda        CamundaConfig           `mapstructure:"camunda"`
	Redis          RedisConfig             `mapstructure:"redis"`
	Workers        map[string]WorkerConfig `mapstructure:"workers"`
	Providers      ProvidersConfig         `mapstructure:"providers"`
	Recommendation RecommendationConfig    `mapstructure:"recommendation"`
	Interview      InterviewConfig         `mapstructure:"interview"`
	Logging        LoggingConfig           `mapstructure:"logging"`
	Server         ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	RegistryFile string `mapstructure:"registry_file"` // optional activity registry export
}

// --- Providers ---

// ProviderConfig is the union of settings any upstream data provider may need.
// Which of them are required is decided by the capability matrix.
type ProviderConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	BaseURL   string `mapstructure:"base_url"`
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

// ProvidersConfig lists every external data provider the enrichment step may call.
type ProvidersConfig struct {
	Qloo      ProviderConfig `mapstructure:"qloo"`
	Amadeus   ProviderConfig `mapstructure:"amadeus"`
	Places    ProviderConfig `mapstructure:"places"`
	FactCheck ProviderConfig `mapstructure:"factcheck"`
	YouTube   ProviderConfig `mapstructure:"youtube"`
	Instagram ProviderConfig `mapstructure:"instagram"`
	GenAI     ProviderConfig `mapstructure:"genai"`
	Email     ProviderConfig `mapstructure:"email"`
}

// --- Pipeline tunables ---

type RecommendationConfig struct {
	TopN                  int `mapstructure:"top_n"`
	EnrichmentConcurrency int `mapstructure:"enrichment_concurrency"`
	CacheTTL              int `mapstructure:"cache_ttl"` // seconds
	BreakerFailures       int `mapstructure:"breaker_failures"`
	BreakerTimeout        int `mapstructure:"breaker_timeout"` // milliseconds
}

type InterviewConfig struct {
	MaxQuestions int `mapstructure:"max_questions"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
