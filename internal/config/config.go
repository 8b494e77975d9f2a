package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultPlannerModel = "gpt-3.5-turbo-0125"
	defaultChatModel    = "gpt-3.5-turbo"
	defaultGeminiModel  = "gemini-2.5-flash"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr         string
		Mode         string
		UploadDir    string
		MaxUploadMB  int64
		AllowOrigins []string
	}
	Database struct {
		Driver string
		URI    string
		Name   string
		Path   string
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
		Header          string
	}
	LLM struct {
		Provider       string
		APIKey         string
		BaseURL        string
		PlannerModel   string
		ChatModel      string
		TimeoutSeconds int
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Cache struct {
		RedisAddr  string
		TTLSeconds int
	}
	Events struct {
		AMQPURL  string
		Exchange string
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ROADMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Provider == ProviderGemini {
		// the model defaults are OpenAI model names
		if cfg.LLM.PlannerModel == defaultPlannerModel {
			cfg.LLM.PlannerModel = defaultGeminiModel
		}
		if cfg.LLM.ChatModel == defaultChatModel {
			cfg.LLM.ChatModel = defaultGeminiModel
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.uploaddir", "uploads")
	v.SetDefault("server.maxuploadmb", 10)
	v.SetDefault("server.alloworigins", []string{"*"})

	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "career_roadmap")
	v.SetDefault("database.path", "data/roadmap.db")

	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 24*60)
	v.SetDefault("auth.header", "x-auth-token")

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.apikey", "")
	v.SetDefault("llm.baseurl", "")
	v.SetDefault("llm.plannermodel", defaultPlannerModel)
	v.SetDefault("llm.chatmodel", defaultChatModel)
	v.SetDefault("llm.timeoutseconds", 120)

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "resumes")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")

	v.SetDefault("cache.redisaddr", "")
	v.SetDefault("cache.ttlseconds", 300)

	v.SetDefault("events.amqpurl", "")
	v.SetDefault("events.exchange", "roadmap_events")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate reports every setting the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth jwt secret is required"))
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		errs = append(errs, errors.New("llm api key is required"))
	}
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URI == "" {
			errs = append(errs, errors.New("database uri is required for mongo"))
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("server max upload size must be positive"))
	}
	return errors.Join(errs...)
}
