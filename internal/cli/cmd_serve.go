package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/schoolrecords/schoolrecords/internal/maintenance"
	"github.com/schoolrecords/schoolrecords/internal/notification"
	"github.com/schoolrecords/schoolrecords/internal/web"
	"github.com/schoolrecords/schoolrecords/internal/web/handlers"
)

func newInitCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and its tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				_, err := fmt.Fprintf(deps.out, "Schema ready in database %s\n", s.provider.DatabaseName())
				return err
			})
		},
	}
}

func newServeCommand(deps commandDeps) *cobra.Command {
	var (
		port        int
		bind        string
		allowSubnet string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and live events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.loadConfig(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("port") {
				cfg.HTTP.Port = port
			}
			if cmd.Flags().Changed("bind") {
				cfg.HTTP.Bind = bind
			}
			if cmd.Flags().Changed("allow-subnet") {
				cfg.HTTP.AllowSubnet = allowSubnet
			}
			if err := cfg.Validate(); err != nil {
				return mapCommandError(err)
			}

			// Warn if binding to all interfaces without an allow list
			if (cfg.HTTP.Bind == "" || cfg.HTTP.Bind == "0.0.0.0" || cfg.HTTP.Bind == "::") && cfg.HTTP.AllowSubnet == "" {
				log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet for security.")
			}

			log.Info().
				Str("version", deps.build.Version).
				Int("port", cfg.HTTP.Port).
				Str("bind", cfg.HTTP.Bind).
				Str("allow_subnet", cfg.HTTP.AllowSubnet).
				Str("driver", cfg.Database.Driver).
				Str("database", cfg.Database.Name).
				Msg("Starting schoolrecords")

			s, err := deps.openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer s.provider.Close()

			scheduler, err := maintenance.New(s.repo, cfg.Maintenance.Schedule)
			if err != nil {
				return usageErrorf("%v", err)
			}
			if err := scheduler.Start(); err != nil {
				return mapCommandError(err)
			}
			defer scheduler.Stop()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)
			go func() {
				select {
				case sig := <-sigChan:
					log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
					cancel()
				case <-ctx.Done():
				}
			}()

			var publishers []handlers.Publisher
			notifier, err := notification.FromConfig(cfg.Notify)
			if err != nil {
				return usageErrorf("%v", err)
			}
			if notifier != nil {
				notifier.Start()
				defer notifier.Stop()
				publishers = append(publishers, notifier)
			}

			server := web.NewServer(cfg.HTTP, s.provider, s.repo, publishers...)
			if err := server.Start(ctx); err != nil {
				return mapCommandError(fmt.Errorf("http server: %w", err))
			}
			log.Info().Msg("Shutdown complete")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (overrides HTTP_PORT)")
	cmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	cmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	return cmd
}

func newMaintenanceCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: "Run one database maintenance pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				scheduler, err := maintenance.New(s.repo, "")
				if err != nil {
					return err
				}
				if err := scheduler.RunNow(cmd.Context()); err != nil {
					return err
				}
				last, _ := scheduler.LastRun()
				_, err = fmt.Fprintf(deps.out, "Maintenance completed at %s\n", last.Format("2006-01-02 15:04:05"))
				return err
			})
		},
	}
}
