// Package cmd provides the CLI commands for sslproxy.
package cmd

import (
	"fmt"
	"os"

	"github.com/hajba/sslproxy/internal/config"
	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var (
	flagDebug   bool
	flagMaxConn int
	flagListen  string
	flagBackend string
	flagCert    string
	flagKey     string
	flagUser    string
	flagChroot  string
	flagMonitor string
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "sslproxy",
	Short: "TLS-terminating reverse proxy",
	Long: `sslproxy accepts inbound TLS connections, performs the server-side
handshake using a locally held certificate and RSA private key, and
forwards the decrypted byte stream verbatim to a TCP, UNIX-domain, or
Docker-resolved backend.

By default sslproxy daemonizes itself, writing its PID to the runtime
directory. Pass -d to stay in the foreground with verbose logging.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cfg.Debug {
			return runForeground(cfg)
		}
		return startDaemon(cfg)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&flagDebug, "debug", "d", false, "stay in the foreground with debug-level logging instead of daemonizing")
	flags.IntVarP(&flagMaxConn, "max-conn", "m", 32, "maximum concurrent connections")
	flags.StringVarP(&flagListen, "listen", "s", "0.0.0.0:443", "listen address")
	flags.StringVarP(&flagBackend, "backend", "c", "", "backend address: host:port, unix:path, or docker:container:port")
	flags.StringVarP(&flagCert, "cert", "C", "/etc/symbion/cert.pem", "certificate file (PEM)")
	flags.StringVarP(&flagKey, "key", "K", "/etc/symbion/key.pem", "private key file (PEM, RSA)")
	flags.StringVarP(&flagUser, "user", "u", "", "drop to this user after binding")
	flags.StringVarP(&flagChroot, "chroot", "r", "", "chroot to this directory after binding")
	flags.StringVarP(&flagMonitor, "monitor", "M", "", "loopback address for the optional debug/monitor endpoint")
	flags.StringVarP(&flagConfig, "config", "f", "", "optional YAML file supplying defaults, overridden by explicit flags")

	rootCmd.AddCommand(runCmd)

	rootCmd.SetVersionTemplate(fmt.Sprintf("sslproxy version {{.Version}}\ncommit: %s\nbuilt: %s\n", Commit, BuildDate))
}

// loadConfig builds a Config from an optional -f file overlaid with
// whichever flags the caller actually set; fields with no such flag keep
// the file's value or, without -f, config.Default()'s.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if flagConfig != "" {
		c, err := config.LoadFromFile(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = flagListen
	}
	if flags.Changed("backend") {
		cfg.Backend = flagBackend
	}
	if flags.Changed("cert") {
		cfg.CertFile = flagCert
	}
	if flags.Changed("key") {
		cfg.KeyFile = flagKey
	}
	if flags.Changed("max-conn") {
		cfg.MaxConn = flagMaxConn
	}
	if flags.Changed("user") {
		cfg.User = flagUser
	}
	if flags.Changed("chroot") {
		cfg.ChrootDir = flagChroot
	}
	if flags.Changed("monitor") {
		cfg.Monitor = flagMonitor
	}
	if flags.Changed("debug") {
		cfg.Debug = flagDebug
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
