package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpattn/regwatch/internal/domain"
	"github.com/rpattn/regwatch/internal/enrichment"
	"github.com/rpattn/regwatch/internal/ingestion"
	"github.com/rpattn/regwatch/internal/pipeline"
	"github.com/rpattn/regwatch/internal/seed"
)

func ingestCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a raw registry extract as a dated snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if label == "" {
				label = time.Now().Format("2006-01-02")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := a.ingest.Ingest(cmd.Context(), ingestion.Request{
				Label:    label,
				FileName: filepath.Base(args[0]),
				Data:     f,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Ingested %s as snapshot %s: %d rows kept (%d invalid keys, %d duplicates)\n",
				args[0], result.Label, result.Kept, result.InvalidKeys, result.Duplicates)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "snapshot date label (default today)")
	return cmd
}

func detectCmd() *cobra.Command {
	var oldLabel, newLabel string

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect changes between two snapshots (default: the two most recent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			var result pipeline.Result
			if oldLabel == "" && newLabel == "" {
				result, err = a.pipeline.DetectLatest(cmd.Context())
			} else if oldLabel == "" || newLabel == "" {
				return fmt.Errorf("both --old and --new are required")
			} else {
				result, err = a.pipeline.DetectBetween(cmd.Context(), oldLabel, newLabel)
			}
			if err != nil {
				return err
			}

			sum := result.Summary
			fmt.Printf("Detected %d changes between %s and %s:\n", sum.TotalChanges, result.OldLabel, result.NewLabel)
			fmt.Printf("  new incorporations: %d\n", sum.Additions)
			fmt.Printf("  deregistrations:    %d\n", sum.Removals)
			fmt.Printf("  field updates:      %d\n", sum.Updates)
			fmt.Printf("Change log: %s\n", result.Artifacts.CSVPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&oldLabel, "old", "", "older snapshot label")
	cmd.Flags().StringVar(&newLabel, "new", "", "newer snapshot label")
	return cmd
}

func summarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Re-run detection over every adjacent snapshot pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			results, err := a.pipeline.SummarizeAll(cmd.Context())
			if err != nil {
				return err
			}

			for _, result := range results {
				fmt.Printf("%s -> %s: %d changes\n",
					result.OldLabel, result.NewLabel, result.Summary.TotalChanges)
			}
			fmt.Printf("Rebuilt %d summaries\n", len(results))
			return nil
		},
	}
}

func enrichCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich the companies touched by the latest change log",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			records, err := enrichmentTargets(a, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("Nothing to enrich; run detection first.")
				return nil
			}

			cache, err := enrichment.NewCache(a.cfg.Data.EnrichedDir)
			if err != nil {
				return err
			}
			fetcher := enrichment.NewMultiFetcher(
				enrichment.NewStructuralFetcher(nil),
				enrichment.NewTaxRegistryFetcher(nil),
			)
			service := enrichment.NewService(
				fetcher,
				cache,
				a.enrichRepo,
				a.cfg.Enrichment.Concurrency,
				a.log,
			)

			enriched, err := service.EnrichBatch(cmd.Context(), records)
			if err != nil {
				return err
			}
			reportPath, err := enrichment.WriteReport(a.cfg.Data.EnrichedDir, enriched, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Enriched %d companies (cache: %d entries)\n", len(enriched), cache.Len())
			fmt.Printf("Report written to %s\n", reportPath)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum companies to enrich")
	return cmd
}

// enrichmentTargets picks the companies touched by the latest change log,
// falling back to the head of the latest snapshot when no log exists.
func enrichmentTargets(a *app, limit int) ([]domain.CompanyRecord, error) {
	labels, err := a.snapshots.Labels()
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, nil
	}
	snap, err := a.snapshots.Load(labels[len(labels)-1])
	if err != nil {
		return nil, err
	}

	dates, err := a.logs.Dates()
	if err != nil {
		return nil, err
	}

	var records []domain.CompanyRecord
	if len(dates) > 0 {
		log, err := a.logs.Load(dates[len(dates)-1])
		if err != nil {
			return nil, err
		}
		for _, cin := range log.AffectedKeys() {
			if record, ok := snap.Record(cin); ok {
				records = append(records, record)
			}
			if len(records) == limit {
				return records, nil
			}
		}
	}
	if len(records) == 0 {
		for _, record := range snap.Records() {
			records = append(records, record)
			if len(records) == limit {
				break
			}
		}
	}
	return records, nil
}

func seedCmd() *cobra.Command {
	var (
		companies int
		days      int
		seedValue int64
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate sample raw extracts for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			generator := seed.NewGenerator(seedValue)
			rows := generator.Baseline(companies)

			for day := 0; day < days; day++ {
				date := time.Now().AddDate(0, 0, day-days+1).Format("2006-01-02")
				path := filepath.Join(outDir, "company_master_"+date+".csv")
				if err := seed.WriteCSV(path, rows); err != nil {
					return err
				}
				fmt.Printf("Wrote %s (%d companies)\n", path, len(rows))
				rows = generator.NextDay(rows, day+1)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&companies, "companies", 200, "companies in the baseline extract")
	cmd.Flags().IntVar(&days, "days", 3, "number of daily extracts to generate")
	cmd.Flags().Int64Var(&seedValue, "seed", 42, "random seed")
	cmd.Flags().StringVar(&outDir, "out", "data/raw", "output directory")
	return cmd
}
