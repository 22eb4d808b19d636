package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"otasync/internal/config"
	"otasync/internal/formatter"
	"otasync/internal/logger"
	"otasync/internal/scraper"
	_ "otasync/internal/sites/stayflexi"
	"otasync/internal/telemetry"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	outputFormat string
	outputFile   string
	verbose      bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "otasync",
		Short:   "Sync OTA bookings from Stayflexi into the reservations database",
		Version: version,
		Long: `otasync logs into the Stayflexi PMS once per property, reads the reservations
listing, opens the folio of every new booking and stores the OTA bookings it
finds. It also serves the back office API for online and direct reservations.`,
		Example: `  # Sync every configured property and print a summary
  otasync sync

  # Sync one property without touching the database, report as markdown
  otasync sync --property 30357 --dry-run -o report.md

  # Parse a saved listing page
  otasync extract listing.html --html --property 30357 -f json

  # Run database migrations, then the API
  otasync migrate up
  otasync serve`,
		PersistentPreRunE: setup,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level regardless of configuration")

	rootCmd.AddCommand(
		newSyncCmd(),
		newExtractCmd(),
		newMigrateCmd(),
		newServeCmd(),
		newPropertiesCmd(),
		newHashPasswordCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(*cobra.Command, []string) error {
	logger.InitLogger()

	if err := config.Init(); err != nil {
		return err
	}

	cfg := config.Get()
	if verbose {
		cfg.Server.LogLevel = "debug"
	}
	logger.SetLogLevel(cfg)

	return nil
}

// addOutputFlags registers the -f and -o flags shared by commands that print a report.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format ("+strings.Join(formatter.Formats, ", ")+")")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
}

// resolveFormat infers the format from the output file when -f was left at its default.
func resolveFormat(format, file string) (string, error) {
	if file != "" && format == "text" {
		if inferred := formatter.FromExtension(file); inferred != "" {
			format = inferred
		}
	}

	if !slices.Contains(formatter.Formats, format) {
		return "", fmt.Errorf("invalid output format: %s", format)
	}

	return format, nil
}

func writeOutput(content scraper.Content) error {
	format, err := resolveFormat(outputFormat, outputFile)
	if err != nil {
		return err
	}

	out, err := formatter.Format(content, format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", outputFile)

		return nil
	}

	fmt.Println(out)

	return nil
}

// selectProperties resolves --property (id or name) against the configured properties.
func selectProperties(properties config.Properties, want string) ([]config.Property, error) {
	if want == "" {
		return properties.Sorted(), nil
	}

	id, ok := properties.ID(want)
	if !ok {
		return nil, fmt.Errorf("unknown property: %s", want)
	}

	return []config.Property{{ID: id, Name: properties.Name(id)}}, nil
}

func shutdownTelemetry(otl telemetry.Otel) {
	if err := otl.Shutdown(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to flush traces")
	}
}
