package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/faisalx96/llm-eval-sub000/internal/eval"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
)

// runCmd executes every job spec matched by the --specs glob and waits for
// the batch to finish. Exit status is non-zero when any job failed fatally.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run batches of evaluation jobs from spec files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			specFilesPattern, err := cmd.Flags().GetString("specs")
			if err != nil {
				return err
			}
			specFiles, err := filepath.Glob(specFilesPattern)
			if err != nil {
				return err
			}
			if len(specFiles) == 0 {
				return errors.Errorf("no spec files matched %q", specFilesPattern)
			}

			config := loadConfig(cmd)
			if maxParallel, _ := cmd.Flags().GetInt("max-parallel-jobs"); maxParallel > 0 {
				config.MaxParallelJobs = maxParallel
			}
			if port, _ := cmd.Flags().GetUint16("port"); port != 0 {
				config.HttpPort = port
			}

			app := eval.New(config)
			app.Out = cmd.OutOrStdout()
			app.Metrics = builtinMetrics()
			app.NewTask = builtinTask

			ctx, cancel := ctxWithSignals()
			defer cancel()
			return app.Run(ctx, specFiles)
		},
	}
	cmd.Flags().String("specs", "", "Glob pattern matching spec files to run.")
	cmd.Flags().Int("max-parallel-jobs", 0, "Maximum number of jobs running at once; 0 for unbounded.")
	cmd.Flags().Uint16("port", 0, "Port serving the websocket subscriber endpoint; 0 to disable.")
	return cmd
}

// builtinMetrics are the metrics available without an embedding program
// registering its own. Real scorers are external collaborators plugged in
// through the eval.App API.
func builtinMetrics() map[string]domain.Metric {
	return map[string]domain.Metric{
		"exact_match": domain.NewMetric("exact_match",
			func(_ context.Context, output, expected, _ interface{}) (float64, error) {
				if expected == nil {
					return 0, errors.New("no expected output to compare against")
				}
				if fmt.Sprintf("%v", output) == fmt.Sprintf("%v", expected) {
					return 1, nil
				}
				return 0, nil
			}),
		"output_length": domain.NewMetric("output_length",
			func(_ context.Context, output, _, _ interface{}) (float64, error) {
				return float64(len(fmt.Sprintf("%v", output))), nil
			}),
	}
}

// builtinTask echoes each item's input back as its output. It exists so
// batches can be exercised end to end without a model client; embedding
// programs provide their own TaskFactory.
func builtinTask(target *domain.TargetSpec) (interface{}, error) {
	return domain.TaskFunc(func(_ context.Context, input interface{}, _ domain.InvocationContext) (interface{}, error) {
		return input, nil
	}), nil
}
