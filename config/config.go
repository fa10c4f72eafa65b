package config

import (
	"fmt"

	coretypes "github.com/projecteru2/core/types"
)

const (
	BackendIPRoute = "iproute"
	BackendNetlink = "netlink"
)

// Config holds global macshift configuration.
type Config struct {
	// IPBinary is the path or name of the iproute2 executable.
	// Env: MACSHIFT_IP_BINARY. Default: "ip".
	IPBinary string `json:"ip_binary" mapstructure:"ip_binary"`
	// IDBinary is the path or name of the executable answering "id -u".
	// Default: "id".
	IDBinary string `json:"id_binary" mapstructure:"id_binary"`
	// Backend selects how links are driven: "iproute" or "netlink".
	// Env: MACSHIFT_BACKEND. Default: "iproute".
	Backend string `json:"backend" mapstructure:"backend"`
	// Netns is a network namespace path (e.g. /var/run/netns/blue) the
	// change runs in. Empty means the current namespace.
	Netns string `json:"netns" mapstructure:"netns"`
	// LockDir holds per-interface lock files. Empty disables locking.
	// Env: MACSHIFT_LOCK_DIR. Default: /run/macshift.
	LockDir string `json:"lock_dir" mapstructure:"lock_dir"`
	// Strict turns a failed post-change verification into a non-zero exit.
	// Default: false.
	Strict bool `json:"strict" mapstructure:"strict"`
	// Log configuration, uses eru core's ServerLogConfig. Logs share stdout
	// with the change report unless log.filename is set.
	// Env: MACSHIFT_LOG_LEVEL, MACSHIFT_LOG_FILENAME.
	Log *coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() *Config {
	return &Config{
		IPBinary: "ip",
		IDBinary: "id",
		Backend:  BackendIPRoute,
		LockDir:  "/run/macshift",
		Log: &coretypes.ServerLogConfig{
			Level: "warn",
		},
	}
}

// Validate rejects unknown backends.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendIPRoute, BackendNetlink:
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendIPRoute, BackendNetlink)
	}
}
