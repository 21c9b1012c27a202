package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/b0bbywan/go-rtkit/config"
	"github.com/b0bbywan/go-rtkit/daemon"
	"github.com/b0bbywan/go-rtkit/logger"
	"github.com/b0bbywan/go-rtkit/rtkit"
)

// Client is the part of *rtkit.Client the commands use.
type Client interface {
	PolicyLimits(ctx context.Context) (rtkit.PolicyLimits, error)
	MakeThreadRealtime(ctx context.Context, pid, tid uint64, priority uint32) error
	MakeThreadHighPriority(ctx context.Context, pid, tid uint64, niceLevel int32) error
	ResetKnown(ctx context.Context) error
	ResetAll(ctx context.Context) error
	Apply(ctx context.Context, pid, tid uint64, req rtkit.Request) error
	Close()
}

type deps struct {
	connect func(ctx context.Context, cfg *config.RTKitConfig) (Client, error)
	inspect func(ctx context.Context) (*daemon.Status, error)
}

type app struct {
	deps
	v          *viper.Viper
	configFile string
	cfg        *config.Config
}

var defaultDeps = deps{
	connect: func(ctx context.Context, cfg *config.RTKitConfig) (Client, error) {
		return rtkit.Connect(ctx, cfg)
	},
	inspect: func(ctx context.Context) (*daemon.Status, error) {
		conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
		if err != nil {
			return nil, &rtkit.RemoteUnavailableError{Method: "ConnectSystemBus", Err: err}
		}
		defer conn.Close()
		return daemon.Inspect(ctx, conn)
	},
}

// Execute runs the go-rtkit command line and exits with status 1 on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

// NewRootCmd builds the go-rtkit command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultDeps)
}

func newRootCmd(d deps) *cobra.Command {
	a := &app{deps: d, v: viper.New()}

	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Ask RealtimeKit for realtime or high thread priority",
		Long:          `A client for the RealtimeKit daemon (org.freedesktop.RealtimeKit1) on the system bus.`,
		Version:       config.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default /etc/go-rtkit/config.yaml or ~/.config/go-rtkit/config.yaml)")
	flags.String("log-level", "WARN", "log level (DEBUG, INFO, WARN, ERROR)")
	flags.Duration("timeout", config.DefaultRTKit().Timeout, "bound on every call to the daemon")
	flags.Uint64("rttime-usec", 0, "RLIMIT_RTTIME set before realtime requests, 0 for the daemon maximum")
	bindFlag(a.v, "log.level", flags.Lookup("log-level"))
	bindFlag(a.v, "rtkit.timeout", flags.Lookup("timeout"))
	bindFlag(a.v, "rtkit.rttime_usec", flags.Lookup("rttime-usec"))

	root.AddCommand(
		a.limitsCmd(),
		a.statusCmd(),
		a.realtimeCmd(),
		a.highCmd(),
		a.resetKnownCmd(),
		a.resetAllCmd(),
		a.applyCmd(),
		a.watchCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	cfg, err := config.Read(a.v, a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)
	logger.SetComponentLevels(cfg.LogComponents)
	a.cfg = cfg
	return nil
}

// withClient connects to the daemon, runs fn and closes the client.
func (a *app) withClient(ctx context.Context, fn func(Client) error) error {
	client, err := a.connect(ctx, a.cfg.RTKit)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func describeError(err error) string {
	if kind, ok := rtkit.KindOf(err); ok {
		return fmt.Sprintf("Error (%s): %v", kind, err)
	}
	return fmt.Sprintf("Error: %v", err)
}
