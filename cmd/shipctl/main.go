package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/xenking/shipbridge/internal/shipctl"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := shipctl.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		cancel()
		os.Exit(1)
	}
}
