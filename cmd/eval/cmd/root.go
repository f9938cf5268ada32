package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/faisalx96/llm-eval-sub000/internal/common"
	"github.com/faisalx96/llm-eval-sub000/internal/eval"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/configuration"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "eval runs batches of evaluation jobs and streams live progress to subscribers.",
	}
	cmd.PersistentFlags().String("config", "", "Path of the directory containing the application config file")

	cmd.AddCommand(
		versionCmd(),
		runCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := eval.New(configuration.DefaultConfig())
			app.Out = cmd.OutOrStdout()
			return app.Version()
		},
	}
}

// loadConfig builds the application config, applying the config file when
// one is provided.
func loadConfig(cmd *cobra.Command) *configuration.EvalConfig {
	config := configuration.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		common.LoadConfig(config, "eval", path)
	}
	return config
}

// ctxWithSignals returns a context cancelled on SIGINT or SIGTERM.
func ctxWithSignals() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
