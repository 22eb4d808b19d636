package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"otasync/internal/config"
	"otasync/internal/extract"
	"otasync/internal/scraper"
	"otasync/internal/sites/stayflexi"

	"github.com/spf13/cobra"
)

var (
	extractProperty string
	extractHTML     bool
	folioFile       string
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [file|-]",
		Short: "Extract bookings from a saved listing card or page",
		Long: `extract runs the field extractor over saved input without a browser.
Plain text is read as one booking card. With --html the input is a saved
reservations listing page and every card on it is extracted. --folio applies a
saved folio page to the extracted booking.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExtract,
	}

	cmd.Flags().StringVar(&extractProperty, "property", "", "Property the input belongs to (id or name)")
	cmd.Flags().BoolVar(&extractHTML, "html", false, "Input is a saved listing page")
	cmd.Flags().StringVar(&folioFile, "folio", "", "Saved folio page of the booking")
	_ = cmd.MarkFlagRequired("property")
	addOutputFlags(cmd)

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	if _, err := resolveFormat(outputFormat, outputFile); err != nil {
		return err
	}

	properties, err := selectProperties(config.Get().Properties, extractProperty)
	if err != nil {
		return err
	}
	p := properties[0]

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	folio := ""
	if folioFile != "" {
		b, err := os.ReadFile(folioFile)
		if err != nil {
			return fmt.Errorf("failed to read folio: %w", err)
		}
		folio = string(b)
	}

	records, err := extractRecords(string(raw), p, extractHTML, folio, time.Now())
	if err != nil {
		return err
	}

	return writeOutput(records)
}

func extractRecords(input string, p config.Property, html bool, folio string, now time.Time) (scraper.Records, error) {
	cards := []string{input}

	if html {
		raws, err := stayflexi.ScanHTML(input, p.ID)
		if err != nil {
			return nil, err
		}

		cards = cards[:0]
		for _, r := range raws {
			cards = append(cards, r.Text)
		}
	}

	records := make(scraper.Records, 0, len(cards))
	for _, card := range cards {
		rec := extract.ExtractAt(card, p.ID, now)
		rec.PropertyName = p.Name
		records = append(records, rec)
	}

	if folio == "" {
		return records, nil
	}

	if len(records) != 1 {
		return nil, errors.New("--folio needs input holding exactly one booking")
	}

	enriched, err := stayflexi.EnrichHTML(records[0], folio)
	if err != nil {
		return nil, err
	}
	records[0] = enriched

	return records, nil
}
