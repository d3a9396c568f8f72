package peercred

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for credd
type Config struct {
	Socket   SocketConfig   `mapstructure:"socket"`
	Server   ServerConfig   `mapstructure:"server"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SocketConfig defines Unix domain socket settings
type SocketConfig struct {
	Dir            string `mapstructure:"dir"`
	Name           string `mapstructure:"name"`
	Permissions    uint32 `mapstructure:"permissions"`
	DirPermissions uint32 `mapstructure:"dir_permissions"`
}

// Path returns the full socket path.
func (c SocketConfig) Path() string {
	return filepath.Join(c.Dir, c.Name)
}

// ServerConfig defines request handling settings
type ServerConfig struct {
	MaxFrameSize    int           `mapstructure:"max_frame_size"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// PolicyConfig defines which peers may connect
type PolicyConfig struct {
	RequireSameUser bool     `mapstructure:"require_same_user"`
	AllowedUIDs     []uint32 `mapstructure:"allowed_uids"`
	AllowedGIDs     []uint32 `mapstructure:"allowed_gids"`
}

// ToPolicy converts the config section into a Policy.
func (c PolicyConfig) ToPolicy() Policy {
	return Policy{
		RequireSameUser: c.RequireSameUser,
		AllowedUIDs:     c.AllowedUIDs,
		AllowedGIDs:     c.AllowedGIDs,
	}
}

// ProtocolConfig defines wire protocol settings
type ProtocolConfig struct {
	Codec string `mapstructure:"codec"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultSocketDir returns /run/credd when running as root, otherwise a
// per-user directory under the temp dir.
func DefaultSocketDir() string {
	if os.Geteuid() == 0 {
		return "/run/credd"
	}
	return filepath.Join(os.TempDir(), "credd")
}

// DefaultSocketPath returns the socket path used when no configuration
// overrides it.
func DefaultSocketPath() string {
	return filepath.Join(DefaultSocketDir(), "credd.sock")
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/credd")
	}

	v.SetEnvPrefix("CREDD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Socket defaults
	v.SetDefault("socket.dir", DefaultSocketDir())
	v.SetDefault("socket.name", "credd.sock")
	v.SetDefault("socket.permissions", 0600)
	v.SetDefault("socket.dir_permissions", 0750)

	// Server defaults
	v.SetDefault("server.max_frame_size", 1048576) // 1MB
	v.SetDefault("server.request_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "5s")

	// Policy defaults
	v.SetDefault("policy.require_same_user", true)

	// Protocol defaults
	v.SetDefault("protocol.codec", "msgpack")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
