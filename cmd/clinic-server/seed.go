package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/virtualclinic/api/internal/platform/db"
	"github.com/virtualclinic/api/internal/platform/synthea"
)

type seedOptions struct {
	dir        string
	generate   bool
	jar        string
	population int
	seed       int64
	state      string
	output     string
}

func (o seedOptions) validate() error {
	if o.generate == (o.dir != "") {
		return fmt.Errorf("pass exactly one of --dir or --generate")
	}
	if o.generate && o.population < 1 {
		return fmt.Errorf("--population must be positive, got %d", o.population)
	}
	return nil
}

func seedCmd() *cobra.Command {
	var o seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the EHR tables with a Synthea CSV export",
		Long: `Loads a Synthea CSV export into the database. Existing patients, their
records and all conversations are deleted first. Pending migrations are
applied before loading.

Either point --dir at an existing export, or pass --generate to run the
Synthea jar (Java 11+ required) and load its output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			logger := newLogger(cfg)

			count, err := db.NewMigrator(pool, migrationFiles("")).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info().Int("applied", count).Msg("migrations up to date")

			dir := o.dir
			if o.generate {
				logger.Info().Int("population", o.population).Int64("seed", o.seed).Str("state", o.state).Msg("running synthea")
				dir, err = synthea.Generate(ctx, synthea.GenerateOptions{
					Jar:        o.jar,
					Population: o.population,
					Seed:       o.seed,
					State:      o.state,
					OutputDir:  o.output,
					Stdout:     cmd.ErrOrStderr(),
					Stderr:     cmd.ErrOrStderr(),
				})
				if err != nil {
					return err
				}
			}

			ds, err := synthea.Load(os.DirFS(dir))
			if err != nil {
				return fmt.Errorf("load %s: %w", dir, err)
			}
			for _, f := range ds.Skipped {
				logger.Warn().Str("file", f).Msg("file not found in export, skipping")
			}

			counts, err := synthea.NewImporter(pool, logger).Import(ctx, ds)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Seed complete:")
			for _, t := range ds.Tables {
				fmt.Fprintf(out, "  %-15s %d\n", t.Name, counts[t.Name])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&o.dir, "dir", "", "Directory holding an existing Synthea CSV export")
	cmd.Flags().BoolVar(&o.generate, "generate", false, "Run Synthea to produce a fresh export")
	cmd.Flags().StringVar(&o.jar, "jar", filepath.Join("synthea", "synthea-with-dependencies.jar"), "Path to the Synthea jar")
	cmd.Flags().IntVar(&o.population, "population", 20, "Number of living patients to generate")
	cmd.Flags().Int64Var(&o.seed, "seed", 42, "Random seed for reproducible output")
	cmd.Flags().StringVar(&o.state, "state", "Massachusetts", "US state to simulate")
	cmd.Flags().StringVar(&o.output, "output", filepath.Join("synthea", "output"), "Synthea output base directory")

	return cmd
}
