package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"firewall-updater/internal/app/server"
	"firewall-updater/internal/app/version"
	"firewall-updater/internal/auth"
	"firewall-updater/internal/config"
	"firewall-updater/internal/firewall"
	"firewall-updater/internal/updater"
)

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found. Falling back to system environment variables.")
	}

	return NewRootCommand().Execute()
}

const defaultTokenTTL = 30 * 24 * time.Hour

type options struct {
	configPath string
	port       int
}

// NewRootCommand builds the CLI. Without a subcommand it serves the HTTP trigger.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "firewall-updater",
		Short:         "Apply a blocklist feed to a cloud firewall rule",
		Version:       version.Get().BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("FIREWALL_UPDATER_CONFIG"), "path to a YAML settings file")

	serve := newServeCommand(opts)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newApplyCommand(opts), newTokenCommand(opts))
	return root
}

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP trigger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			upd, err := newUpdater(ctx, cfg)
			if err != nil {
				return err
			}
			return server.OpenRoutes(ctx, cfg, upd)
		},
	}
	cmd.Flags().IntVar(&opts.port, "port", 0, "port to listen on (overrides PORT)")
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Fetch the blocklist and update the firewall rule once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			upd, err := newUpdater(ctx, cfg)
			if err != nil {
				return err
			}

			outcome, err := upd.Run(ctx)
			if err != nil {
				log.Error("ERROR", "error", err)
				return fmt.Errorf("an error occurred: %w", err)
			}

			log.Info("Firewall rule updated",
				"rule", outcome.Rule,
				"entries", outcome.Ranges,
				"previous_entries", outcome.Previous,
				"operation", outcome.Operation.Name,
			)
			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message())
			return nil
		},
	}
}

func newTokenCommand(opts *options) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the trigger endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, cmd)
			if err != nil {
				return err
			}

			token, err := auth.IssueToken(cfg.TriggerSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "scheduler", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "token lifetime; 0 issues a token that never expires")
	return cmd
}

func loadConfig(opts *options, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flag := cmd.Flags().Lookup("port"); flag != nil && flag.Changed {
		if opts.port <= 0 {
			return config.Config{}, fmt.Errorf("invalid port override %d", opts.port)
		}
		cfg.Port = opts.port
	}

	log.SetLevel(cfg.Level())
	log.Debug("Configuration loaded",
		"project", cfg.ProjectID,
		"rule", cfg.FirewallRule,
		"feed", cfg.BlocklistURL,
		"trigger_auth", cfg.TriggerSecret != "",
	)
	return cfg, nil
}

func newUpdater(ctx context.Context, cfg config.Config) (*updater.Updater, error) {
	client, err := firewall.NewComputeClient(ctx, firewall.ClientOptions(cfg.ComputeEndpoint, version.UserAgent())...)
	if err != nil {
		return nil, err
	}
	return updater.New(cfg, client), nil
}
