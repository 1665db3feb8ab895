package main

import (
	"fmt"

	"github.com/poiesic/qamatch/ingestion"
	"github.com/urfave/cli/v2"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import question/answer pairs from a .csv or .xlsx file",
		ArgsUsage: "<file>",
		Action:    importAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "update",
				Usage: "Overwrite the answer of questions that already exist",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would change without writing",
			},
			&cli.Float64Flag{
				Name:  "semantic-dedupe",
				Usage: "Skip questions at least this similar to an indexed one (0 disables)",
			},
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Number of embedding batches computed concurrently",
				Value: 4,
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of rows embedded per request",
				Value: 32,
			},
		},
	}
}

func importAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file, got %d arguments", c.NArg())
	}
	if c.Int("pool-size") <= 0 {
		return fmt.Errorf("pool-size must be greater than 0")
	}
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	dedupe := c.Float64("semantic-dedupe")
	if dedupe < 0 || dedupe > 1 {
		return fmt.Errorf("semantic-dedupe must be between 0 and 1")
	}

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	imp, err := db.NewImporter(
		ingestion.WithPoolSize(c.Int("pool-size")),
		ingestion.WithBatchSize(c.Int("batch-size")))
	if err != nil {
		return err
	}
	defer imp.Release()

	report, err := imp.ImportFile(c.Context, c.Args().First(), ingestion.ImportOptions{
		Update:         c.Bool("update"),
		DryRun:         c.Bool("dry-run"),
		SemanticDedupe: dedupe,
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	out := outWriter(c)
	if c.Bool("dry-run") {
		fmt.Fprintln(out, "dry run, nothing written")
	}
	fmt.Fprintf(out, "rows: %d\ninserted: %d\nupdated: %d\nskipped: %d\nduplicates: %d\nsemantic duplicates: %d\n",
		report.Rows, report.Inserted, report.Updated, report.Skipped, report.Duplicates, report.SemanticDuplicates)

	if c.Bool("dry-run") {
		return nil
	}
	return db.VerifyManifest(c.Context)
}
