package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full configuration shared by the server, the check-in agent
// and the CLI. Each binary reads only the sections it needs.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Redis      RedisConfig      `mapstructure:"redis"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	Agent      AgentConfig      `mapstructure:"agent"`
}

type ServerConfig struct {
	Port       int    `mapstructure:"port"`
	BaseDomain string `mapstructure:"base_domain"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	ExpirationHours int           `mapstructure:"expiration_hours"`
	Issuer          string        `mapstructure:"issuer"`
	Leeway          time.Duration `mapstructure:"leeway"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type AttendanceConfig struct {
	// MaxClockSkew bounds how far in the future a client-supplied check-in
	// time may be before the server replaces it with its own clock.
	MaxClockSkew time.Duration `mapstructure:"max_clock_skew"`
}

type JobsConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Concurrency int           `mapstructure:"concurrency"`
	WakeupLead  time.Duration `mapstructure:"wakeup_lead"`
}

// AgentConfig configures one check-in station.
type AgentConfig struct {
	Port             int           `mapstructure:"port"`
	ServerURL        string        `mapstructure:"server_url"`
	Organization     string        `mapstructure:"organization"`
	UserID           int64         `mapstructure:"user_id"`
	Token            string        `mapstructure:"token"`
	Store            string        `mapstructure:"store"`
	StoreNamespace   string        `mapstructure:"store_namespace"`
	Connectivity     string        `mapstructure:"connectivity"`
	ProbeInterval    time.Duration `mapstructure:"probe_interval"`
	SyncInterval     time.Duration `mapstructure:"sync_interval"`
	SyncCallTimeout  time.Duration `mapstructure:"sync_call_timeout"`
	ReconnectMaxWait time.Duration `mapstructure:"reconnect_max_wait"`
	DataPath         string        `mapstructure:"data_path"`
	HostSample       time.Duration `mapstructure:"host_sample_interval"`
}

// Load reads .env, config.yaml (optional) and CHOIROS_* environment variables.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("[Config] Loaded .env")
	}

	cfg, err := LoadFrom(".", "./configs")
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}
	return cfg
}

// LoadFrom builds the configuration from defaults, the first config.yaml
// found in dirs and the environment, in increasing order of precedence.
func LoadFrom(dirs ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("CHOIROS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[Config] No config.yaml found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key. Unmarshal only resolves keys viper
// knows about, so a key without a default is invisible to AutomaticEnv.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_domain", "choiros.app")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "choiros")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "choiros")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.expiration_hours", 24*30)
	v.SetDefault("jwt.issuer", "choiros")
	v.SetDefault("jwt.leeway", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("attendance.max_clock_skew", 5*time.Minute)

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.concurrency", 5)
	v.SetDefault("jobs.wakeup_lead", time.Hour)

	v.SetDefault("agent.port", 8090)
	v.SetDefault("agent.server_url", "http://localhost:8080")
	v.SetDefault("agent.organization", "")
	v.SetDefault("agent.user_id", 0)
	v.SetDefault("agent.token", "")
	v.SetDefault("agent.store", "redis")
	v.SetDefault("agent.store_namespace", "device")
	v.SetDefault("agent.connectivity", "websocket")
	v.SetDefault("agent.probe_interval", 15*time.Second)
	v.SetDefault("agent.sync_interval", 5*time.Minute)
	v.SetDefault("agent.sync_call_timeout", 10*time.Second)
	v.SetDefault("agent.reconnect_max_wait", time.Minute)
	v.SetDefault("agent.data_path", "/")
	v.SetDefault("agent.host_sample_interval", 30*time.Second)
}
