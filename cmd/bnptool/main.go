package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/fang"

	"bnptool/internal/services"
)

// Version is the release version (set via -ldflags).
var Version = "dev"

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cmd, cc := newRootCommand()
	defer func() { _ = cc.close() }()
	err := fang.Execute(
		ctx,
		cmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	)
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return services.ExitCode(err)
}
