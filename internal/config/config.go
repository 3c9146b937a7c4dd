package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode      string `mapstructure:"mode"`
	Port      int    `mapstructure:"port"`
	Secret    string `mapstructure:"secret"`
	ReadLimit int64  `mapstructure:"read_limit"`

	// Transport liveness. A connection missing two pings in a row is dead.
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	PongWait     time.Duration `mapstructure:"pong_wait"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Matchmaking policy.
	QueueTTL          time.Duration `mapstructure:"queue_ttl"`
	BuddyPromoteAfter time.Duration `mapstructure:"buddy_promote_after"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	EndOnUnreachable  bool          `mapstructure:"end_on_unreachable"`

	SendBuffer     int `mapstructure:"send_buffer"`
	MaxConnections int `mapstructure:"max_connections"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "15s")
	v.SetDefault("pong_wait", "30s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("queue_ttl", "120s")
	v.SetDefault("buddy_promote_after", "30s")
	v.SetDefault("sweep_interval", "5s")
	v.SetDefault("end_on_unreachable", true)
	v.SetDefault("send_buffer", 64)
	v.SetDefault("max_connections", 10000)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
