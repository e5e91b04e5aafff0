package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the whole process's value bag. Every tunable the relay
// needs lives here rather than as a scattered compile-time constant,
// so tests and deployments can vary timeouts and limits without
// recompiling.
type Config struct {
	Mode        string `mapstructure:"mode"`
	Port        int    `mapstructure:"port"`
	UDPPort     int    `mapstructure:"udp_port"`
	AdvertiseIP string `mapstructure:"advertise_ip"`
	StaticPath  string `mapstructure:"static_path"`
	LogLevel    string `mapstructure:"log_level"`
	Secret      string `mapstructure:"secret"`

	MaxPeersPerChannel     int   `mapstructure:"max_peers_per_channel"`
	EgressQueueSize        int   `mapstructure:"egress_queue_size"`
	ZombieTimeoutMs        int64 `mapstructure:"zombie_timeout_ms"`
	HeartbeatIntervalMs    int64 `mapstructure:"heartbeat_interval_ms"`
	MaxMessageLength       int   `mapstructure:"max_message_length"`
	FloorMaxTakenMs        int64 `mapstructure:"floor_max_taken_ms"`
	FloorPingTimeoutMs     int64 `mapstructure:"floor_ping_timeout_ms"`
	FloorPriorityDefault   uint8 `mapstructure:"floor_priority_default"`
	ReaperIntervalMs       int64 `mapstructure:"reaper_interval_ms"`
	DTLSHandshakeTimeoutMs int64 `mapstructure:"dtls_handshake_timeout_ms"`

	MessageRateLimit           int   `mapstructure:"message_rate_limit"`
	MessageRateIntervalMs      int64 `mapstructure:"message_rate_interval_ms"`
	FloorRequestRateLimit      int   `mapstructure:"floor_request_rate_limit"`
	FloorRequestRateIntervalMs int64 `mapstructure:"floor_request_rate_interval_ms"`
}

// Load resolves configuration from, in ascending precedence: built-in
// defaults, an optional YAML file, LIVECHAT_* environment variables and
// command-line flags.
func Load(args []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	v.SetConfigFile(fmt.Sprintf("config/config.%s.yaml", env))
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("udp_port", 10000)
	v.SetDefault("advertise_ip", "")
	v.SetDefault("static_path", "./web")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_peers_per_channel", 100)
	v.SetDefault("egress_queue_size", 2048)
	v.SetDefault("zombie_timeout_ms", 30_000)
	v.SetDefault("heartbeat_interval_ms", 10_000)
	v.SetDefault("max_message_length", 2_000)
	v.SetDefault("floor_max_taken_ms", 30_000)
	v.SetDefault("floor_ping_timeout_ms", 6_000)
	v.SetDefault("floor_priority_default", 100)
	v.SetDefault("reaper_interval_ms", 10_000)
	v.SetDefault("dtls_handshake_timeout_ms", 10_000)
	v.SetDefault("message_rate_limit", 10)
	v.SetDefault("message_rate_interval_ms", 10_000)
	v.SetDefault("floor_request_rate_limit", 5)
	v.SetDefault("floor_request_rate_interval_ms", 5_000)

	v.SetEnvPrefix("livechat")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
		log.Debug().Str("module", "config").Msg("no config file found, using defaults/env/flags")
	}

	fs := flag.NewFlagSet("relay", flag.ContinueOnError)
	fs.Int("port", v.GetInt("port"), "signaling HTTP/WS port")
	fs.Int("udp-port", v.GetInt("udp_port"), "shared UDP media port")
	fs.String("advertise-ip", v.GetString("advertise_ip"), "public IP advertised in ICE candidates")
	fs.String("log-level", v.GetString("log_level"), "zerolog level")
	fs.String("static-path", v.GetString("static_path"), "static asset directory")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}
	flagKeys := map[string]string{
		"port":         "port",
		"udp_port":     "udp-port",
		"advertise_ip": "advertise-ip",
		"log_level":    "log-level",
		"static_path":  "static-path",
	}
	for key, name := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	log.Info().Str("module", "config").
		Int("port", cfg.Port).Int("udp_port", cfg.UDPPort).
		Str("log_level", cfg.LogLevel).Msg("configuration loaded")
	return &cfg, nil
}
