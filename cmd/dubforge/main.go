package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dubforge/internal/services"
)

// Exit codes: operational failures exit 1; defects in the inputs or
// configuration that the operator must fix before retrying exit 2, so
// wrapper scripts can tell the two apart.
const (
	exitFailure  = 1
	exitBadInput = 2
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "dubforge:", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if errors.Is(err, services.ErrInput) || errors.Is(err, services.ErrValidation) {
		return exitBadInput
	}
	return exitFailure
}
