// cmd/kaziocha/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/kaziocha/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	// WAFFLE builds the logger from config, so a failure before that point
	// can only go to stderr.
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		fmt.Fprintf(os.Stderr, "kaziocha: %v\n", err)
		os.Exit(1)
	}
}
