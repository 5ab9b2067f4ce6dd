package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmehra2102/order-consistency-engine/pkg/shutdown"
)

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	root, closeStore := newRootCmd()
	err := root.ExecuteContext(ctx)
	if cerr := closeStore(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
