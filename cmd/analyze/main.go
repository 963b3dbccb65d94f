package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"nday-analyzer/src/helpers"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitInvalid = 2
)

// -----------------------------------------------------------------------------

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// -----------------------------------------------------------------------------

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitInvalid
	}

	a, err := setup(ctx, opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer a.Close()

	result, err := a.analyzer.Analyze(ctx, opts.request())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var vErr *helpers.ValidationError
		if errors.As(err, &vErr) {
			return exitInvalid
		}
		return exitFailure
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if opts.full {
		err = enc.Encode(result)
	} else {
		err = enc.Encode(result.Result)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitOK
}
