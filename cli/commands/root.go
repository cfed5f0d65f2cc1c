package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vvv850/infra-mapper/internal/config"
	"github.com/vvv850/infra-mapper/internal/discovery"
	"github.com/vvv850/infra-mapper/internal/event"
	"github.com/vvv850/infra-mapper/internal/logger"
	"github.com/vvv850/infra-mapper/internal/render"
	"github.com/vvv850/infra-mapper/internal/session"
	"github.com/vvv850/infra-mapper/internal/store"
	"github.com/vvv850/infra-mapper/internal/topology"
)

// Root builds and returns our root command
func Root() *cobra.Command {
	var verbose bool
	var silent bool
	var configPath string
	var format string
	var outputDir string
	var maxInFlight int

	cmd := &cobra.Command{
		Use:   "infra-mapper",
		Short: "Discover docker workloads across your servers and diagram them",
		// This runs before all commands and all sub-commands
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// set logging verbosity for all loggers
			zerolog.SetGlobalLevel(zerolog.InfoLevel)

			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			if silent {
				zerolog.SetGlobalLevel(zerolog.Disabled)
			}

			// route logs to file so the console stays free for the
			// summary; a broken log path disables logs rather than
			// failing the run
			if zerolog.GlobalLevel() != zerolog.Disabled {
				log := logger.New()

				logFile, ok := viper.Get("log-file").(string)

				if !ok || logFile == "" {
					log.Info().Msg("no log file configured, disabling logs")
					zerolog.SetGlobalLevel(zerolog.Disabled)
				} else if err := logger.GlobalSetLogFile(logFile); err != nil {
					log.Error().Err(err).Msg("disabling logs")
					zerolog.SetGlobalLevel(zerolog.Disabled)
				}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New()

			outputFormat, err := render.ParseFormat(format)

			if err != nil {
				return err
			}

			if configPath != "" {
				viper.Set("config-file", configPath)
			}

			conf, err := config.New(viper.Get("config-file").(string))

			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			specs, err := conf.ServerSpecs()

			if err != nil {
				return err
			}

			if err := collectPasswords(specs); err != nil {
				return err
			}

			progress := make(chan *event.Event, len(specs)*2)

			go logProgress(progress)

			coordinator := discovery.NewCoordinator(discovery.Options{
				Specs:       specs,
				Provider:    session.NewSSHProvider(),
				MaxInFlight: maxInFlight,
				Progress:    progress,
			})

			// ctrl-c cancels the run cooperatively; the fleet still
			// comes back complete with cancelled markers
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			fleet := coordinator.Run(ctx)

			close(progress)

			printSummary(fleet)

			if repo, err := store.NewSqliteDatabase(); err != nil {
				log.Warn().Err(err).Msg("snapshot store unavailable")
			} else if err := repo.SaveFleet(fleet); err != nil {
				log.Warn().Err(err).Msg("failed to save fleet snapshot")
			}

			return writeDiagrams(fleet, outputFormat, outputDir)
		},
	}

	// Persistent flags available to all commands
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")
	cmd.PersistentFlags().BoolVar(&silent, "silent", false, "disables all logging")

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to servers.yaml config file")
	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatMermaid), "output format: mermaid, html or both")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory to write diagram files to")
	cmd.Flags().IntVar(&maxInFlight, "max-in-flight", 0, "maximum concurrent server probes (0 for default)")

	cmd.AddCommand(renderFromSnapshot())
	cmd.AddCommand(clean())
	cmd.AddCommand(version())

	return cmd
}

// writeDiagrams renders the fleet to disk. Once a fleet was produced
// the run counts as successful, so a write failure is logged without
// failing the command.
func writeDiagrams(fleet *topology.Fleet, format render.Format, dir string) error {
	written, err := render.WriteFiles(fleet, format, dir)

	for _, target := range written {
		fmt.Printf("wrote %s\n", target)
	}

	if err != nil {
		logger.New().Error().Err(err).Msg("failed to write diagram files")
	}

	return nil
}

func logProgress(progress chan *event.Event) {
	log := logger.New()

	for evt := range progress {
		update, ok := evt.Payload.(discovery.ProgressUpdate)

		if !ok {
			continue
		}

		switch {
		case evt.Type == event.ServerDiscoveryStarted:
			log.Info().Str("host", update.Host).Msg("server discovery started")
		case update.Err != nil:
			log.Info().
				Str("host", update.Host).
				Str("kind", string(update.Err.Kind)).
				Msg("server discovery finished")
		default:
			log.Info().Str("host", update.Host).Msg("server discovery finished")
		}
	}
}

func printSummary(fleet *topology.Fleet) {
	succeeded := len(fleet.Servers) - fleet.FailedCount()

	fmt.Printf("\nServers: %d/%d discovered\n", succeeded, len(fleet.Servers))

	for _, server := range fleet.Servers {
		if server.Failed() {
			fmt.Printf("  ✗ %s: %s\n", server.Host, server.Err.Error())
			continue
		}

		line := fmt.Sprintf(
			"  ✓ %s: %d stacks, %d standalone, %d containers",
			server.Host,
			len(server.Stacks),
			len(server.Standalone),
			server.ContainerCount(),
		)

		if server.Warnings > 0 {
			line = fmt.Sprintf("%s (%d parse warnings)", line, server.Warnings)
		}

		fmt.Println(line)
	}
}
