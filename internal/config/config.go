package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	ServiceName      string        `mapstructure:"SERVICE_NAME"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32         `mapstructure:"DB_MIN_CONNS"`
	DBSimpleProtocol bool          `mapstructure:"DB_SIMPLE_PROTOCOL"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit        string        `mapstructure:"BODY_LIMIT"`

	AzureOpenAIAPIKey     string `mapstructure:"AZURE_OPENAI_API_KEY"`
	AzureOpenAIEndpoint   string `mapstructure:"AZURE_OPENAI_ENDPOINT"`
	AzureOpenAIDeployment string `mapstructure:"AZURE_OPENAI_DEPLOYMENT"`
	AzureOpenAIAPIVersion string `mapstructure:"AZURE_OPENAI_API_VERSION"`
	OpenAIAPIKey          string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel           string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL         string `mapstructure:"OPENAI_BASE_URL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "3001")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVICE_NAME", "virtual-clinic-api")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 0)
	v.SetDefault("DB_SIMPLE_PROTOCOL", true)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("AZURE_OPENAI_API_VERSION", "2024-08-01-preview")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("SERVICE_NAME")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("DB_SIMPLE_PROTOCOL")
	v.BindEnv("JWT_SECRET", "JWT_SECRET", "SUPABASE_JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("BODY_LIMIT")
	v.BindEnv("AZURE_OPENAI_API_KEY")
	v.BindEnv("AZURE_OPENAI_ENDPOINT")
	v.BindEnv("AZURE_OPENAI_DEPLOYMENT")
	v.BindEnv("AZURE_OPENAI_API_VERSION")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("OPENAI_MODEL")
	v.BindEnv("OPENAI_BASE_URL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}

	if cfg.IsDev() && cfg.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set; every protected route will answer 401.")
	}

	return cfg, nil
}

// RequireDatabase is called by commands that cannot run without a database.
// The server itself starts without one and reports it through /api/health.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesAzure reports whether LLM calls go to an Azure OpenAI deployment
// rather than the public OpenAI endpoint.
func (c *Config) UsesAzure() bool {
	return c.AzureOpenAIEndpoint != ""
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT secret and LLM credentials are required.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set when ENV=%q", c.Env)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.DBMinConns)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}

	if c.UsesAzure() {
		if c.AzureOpenAIAPIKey == "" {
			return fmt.Errorf("AZURE_OPENAI_API_KEY is required when AZURE_OPENAI_ENDPOINT is set")
		}
		if c.AzureOpenAIDeployment == "" {
			return fmt.Errorf("AZURE_OPENAI_DEPLOYMENT is required when AZURE_OPENAI_ENDPOINT is set")
		}
	} else if c.IsProduction() && c.OpenAIAPIKey == "" {
		return fmt.Errorf("either AZURE_OPENAI_ENDPOINT or OPENAI_API_KEY must be configured in production")
	}

	return nil
}
