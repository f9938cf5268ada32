package main

import (
	"os"

	"github.com/faisalx96/llm-eval-sub000/cmd/eval/cmd"
	"github.com/faisalx96/llm-eval-sub000/internal/common"
)

func main() {
	common.ConfigureLogging()
	err := cmd.RootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
