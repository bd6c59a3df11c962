package main

import (
	"fmt"
	"slices"

	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/migrations"
	"github.com/spf13/cobra"
)

// resolveServices expands "all" and rejects names without a migrations directory.
func resolveServices(names []string) ([]string, error) {
	if len(names) == 0 || slices.Contains(names, "all") {
		return migrations.Services, nil
	}
	for _, n := range names {
		if !slices.Contains(migrations.Services, n) {
			return nil, fmt.Errorf("unknown service %q (want one of %v or all)", n, migrations.Services)
		}
	}
	return names, nil
}

func newMigrateCmd(s *settings) *cobra.Command {
	var services []string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			targets, err := resolveServices(services)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := s.open(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := s.logger()
			for _, svc := range targets {
				n, err := db.NewMigrator(pool, migrations.FS, svc, logger).Up(ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", svc, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-13s %d migration(s) applied\n", svc, n)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&services, "service", []string{"all"}, "services to migrate")
	return cmd
}
