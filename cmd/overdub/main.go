package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

// run keeps exit handling in one place. Cancellation is a clean shutdown, not
// an error worth printing.
func run() int {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "overdub:", err)
		}
		return 1
	}
	return 0
}
