package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"flavor-solver/internal/common/config"
	"flavor-solver/internal/common/logger"
	"flavor-solver/internal/solver"
)

var backendsJSON bool

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Probe the execution backends on this machine",
	Long: `Spins up the worker pool and the data-parallel evaluator the way a
solve would, then reports whether each came up and any initialization error.`,
	RunE: runBackends,
}

func init() {
	backendsCmd.Flags().BoolVar(&backendsJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(backendsCmd)
}

type backendReport struct {
	Available bool   `json:"available"`
	InitError string `json:"init_error,omitempty"`
}

type backendsReport struct {
	Worker       backendReport `json:"worker"`
	DataParallel backendReport `json:"data_parallel"`
}

func runBackends(cmd *cobra.Command, args []string) error {
	selector := solver.NewSelector(config.DefaultEngine(), logger.NewNoOpLogger(), nil)
	defer selector.Teardown()

	report := backendsReport{
		Worker:       backendReport{Available: selector.WorkerBackendAvailable()},
		DataParallel: backendReport{Available: selector.DataParallelAvailable()},
	}
	if err := selector.LastWorkerInitError(); err != nil {
		report.Worker.InitError = err.Error()
	}
	if err := selector.LastDataParallelInitError(); err != nil {
		report.DataParallel.InitError = err.Error()
	}

	if backendsJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("worker pool:    %s\n", formatBackend(report.Worker))
	cmd.Printf("data parallel:  %s\n", formatBackend(report.DataParallel))
	return nil
}

func formatBackend(report backendReport) string {
	if report.Available {
		return "available"
	}
	if report.InitError != "" {
		return fmt.Sprintf("unavailable (%s)", report.InitError)
	}
	return "unavailable"
}
