package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cocoonstack/macshift/config"
)

// app carries per-invocation state shared by the command tree.
type app struct {
	cfgFile string
	conf    *config.Config
	v       *viper.Viper
	deps    backends
}

func newRootCmd(deps backends) *cobra.Command {
	_, cmd := newApp(deps)
	return cmd
}

func newApp(deps backends) (*app, *cobra.Command) {
	a := &app{v: viper.New(), deps: deps}

	cmd := &cobra.Command{
		Use:   "macshift IFACE [-m MAC]",
		Short: "Change the MAC address of a network interface",
		Long: "Change the MAC address of a specified network interface.\n" +
			"Use with caution. Requires sudo/root permissions.",
		Example: "  macshift wlan0                        # random locally administered address\n" +
			"  macshift wlan0 -m 02:1A:2B:3C:4D:5E   # specific address\n" +
			"  macshift -- gen                       # interface named like a subcommand",
		Args:          cobra.MatchAll(cobra.ExactArgs(1), nonEmptyArg),
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.initConfig()
		},
		RunE: a.runChange,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.Flags().StringP("mac", "m", "", "new MAC address, e.g. 02:1A:2B:3C:4D:5E (random if omitted)")

	def := config.DefaultConfig()
	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file path")
	pf.String("backend", def.Backend, "link backend: iproute or netlink")
	pf.String("ip-binary", def.IPBinary, "iproute2 ip binary")
	pf.String("netns", def.Netns, "network namespace path to operate in")
	pf.String("lock-dir", def.LockDir, "per-interface lock directory (empty disables locking)")
	pf.Bool("strict", def.Strict, "exit non-zero when the new address cannot be verified")
	pf.String("log-level", def.Log.Level, "log level")
	pf.String("log-file", def.Log.Filename, "write logs to this file instead of stdout")

	for key, flag := range map[string]string{
		"backend":      "backend",
		"ip_binary":    "ip-binary",
		"netns":        "netns",
		"lock_dir":     "lock-dir",
		"strict":       "strict",
		"log.level":    "log-level",
		"log.filename": "log-file",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}
	a.v.SetDefault("id_binary", def.IDBinary)

	a.v.SetEnvPrefix("MACSHIFT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	cmd.AddCommand(
		genCmd(),
		versionCmd(),
	)
	return a, cmd
}

func (a *app) initConfig() error {
	a.conf = config.DefaultConfig()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
	}

	if err := a.v.Unmarshal(a.conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := a.conf.Validate(); err != nil {
		return err
	}

	return log.SetupLog(context.Background(), a.conf.Log, "")
}

func nonEmptyArg(_ *cobra.Command, args []string) error {
	if strings.TrimSpace(args[0]) == "" {
		return errors.New("interface name must not be empty")
	}
	return nil
}

// Execute is the main entry point called from main.go. SIGINT/SIGTERM
// cancel the context handed to the running command.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return newRootCmd(defaultBackends()).ExecuteContext(ctx)
}

// ExitCode maps the error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
