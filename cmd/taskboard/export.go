package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-task-board/internal/export"
)

func exportCmd() *cobra.Command {
	var (
		format     string
		outDir     string
		status     string
		startDate  string
		endDate    string
		assignedTo string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a CSV or PDF report of the tasks",
		Long: `Write a report of the tasks to a file named tarefas_<date>.<ext>.

Examples:
  taskboard export --format csv --out ./reports
  taskboard export --format pdf --status approved --start-date 2024-06-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			filter, err := export.ParseFilter(status, startDate, endDate, assignedTo)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, logger, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			tasks, err := a.Tasks().ListTasks(ctx)
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			path := filepath.Join(outDir, export.FileName(f, time.Now()))
			file, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			defer file.Close()

			err = export.Write(file, f, tasks, filter)
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			logger.Info().
				Str("file", path).
				Int("tasks", len(filter.Apply(tasks))).
				Msg("exported tasks")
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatCSV), "report format (csv, pdf)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&status, "status", "", "only tasks with this status")
	cmd.Flags().StringVar(&startDate, "start-date", "", "created on or after (yyyy-mm-dd)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "created on or before (yyyy-mm-dd)")
	cmd.Flags().StringVar(&assignedTo, "assigned-to", "", "only tasks assigned to this user id")

	return cmd
}
