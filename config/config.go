package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

// StoreConfig selects the room store backend: "memory" or "postgres".
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig holds round defaults. Duration is in seconds and is fixed per
// room at creation time.
type GameConfig struct {
	DefaultDuration int `mapstructure:"default_duration"`
	MinDuration     int `mapstructure:"min_duration"`
	MaxDuration     int `mapstructure:"max_duration"`
}

// ClampDuration resolves a requested round duration against the configured
// bounds: zero or negative means "use the default", everything else is
// clamped into [min, max].
func (g GameConfig) ClampDuration(seconds int) int {
	if seconds <= 0 {
		seconds = g.DefaultDuration
	}
	if g.MinDuration > 0 && seconds < g.MinDuration {
		seconds = g.MinDuration
	}
	if g.MaxDuration > 0 && seconds > g.MaxDuration {
		seconds = g.MaxDuration
	}
	return seconds
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("store.backend", "memory")
	viper.SetDefault("game.default_duration", 120)
	viper.SetDefault("game.min_duration", 10)
	viper.SetDefault("game.max_duration", 600)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
