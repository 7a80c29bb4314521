package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/sandboxtest/sandboxtest/internal/automock"
	"github.com/sandboxtest/sandboxtest/internal/coverage"
	"github.com/sandboxtest/sandboxtest/internal/output"
	"github.com/sandboxtest/sandboxtest/internal/resolve"
	"github.com/sandboxtest/sandboxtest/internal/runtime"
	"github.com/sandboxtest/sandboxtest/internal/sandbox"
	"github.com/sandboxtest/sandboxtest/internal/transform"
)

var workersFlag int

// NewRunCmd creates the run command, which builds one Runtime per test
// file and requires it, fanning test files out across workersFlag
// goroutines. Each Runtime instance is only ever touched by the
// goroutine that owns it, per spec.md §5.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Load and execute test files through the sandboxed module loader",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRun,
	}
	cmd.Flags().IntVar(&workersFlag, "workers", 1, "Number of test files to load concurrently")
	return cmd
}

type fileResult struct {
	file string
	err  error
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := GetResolvedConfig()
	if cfg == nil {
		return NewExitError(fmt.Errorf("sandboxtest: configuration was not resolved"), ExitGeneralError)
	}

	results := make([]fileResult, len(args))
	sem := make(chan struct{}, maxWorkers(workersFlag))
	var wg sync.WaitGroup

	for i, file := range args {
		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = fileResult{file: file, err: runOneFile(cfg, file)}
		}(i, file)
	}

	action := func() error {
		wg.Wait()
		return nil
	}
	if err := output.RunWithSpinner(context.Background(), fmt.Sprintf("running %d test files", len(args)), action); err != nil {
		return err
	}

	failures := 0
	for _, r := range results {
		if r.err != nil {
			failures++
			output.Println(fmt.Sprintf("FAIL  %s: %v", r.file, r.err))
			continue
		}
		output.Println(fmt.Sprintf("PASS  %s", r.file))
	}

	if failures > 0 {
		return NewExitError(fmt.Errorf("%d of %d test files failed", failures, len(args)), ExitTestFailure)
	}
	return nil
}

func maxWorkers(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// runOneFile builds a fresh Runtime wired to the default resolver,
// native transformer, native sandbox, CUE-backed metadata provider, and
// hand-rolled coverage collector, then requires file as the entry
// module, reporting whatever error its wrapper body returns. file itself
// (and any dependency the module tree requires) only executes if a body
// was registered for it in-process or it loads as a Go plugin exporting
// transform.WrapperSymbol — see NativeTransformer.Transform.
func runOneFile(cfg *runtime.Config, file string) error {
	resolver := resolve.NewFSResolver(cfg.RootDir)
	transformer := &transform.NativeTransformer{}
	sandboxEnv := sandbox.New()
	metadataProvider := automock.NewProvider()

	rt, err := runtime.New(cfg, resolver, transformer, sandboxEnv, metadataProvider, coverage.NewCollectorFunc())
	if err != nil {
		return err
	}

	_, err = rt.RequireModule(file, "")
	return err
}
