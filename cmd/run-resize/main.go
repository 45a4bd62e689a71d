// Command run-resize writes resized copies of the images found under the
// given paths into per-width subdirectories next to each source.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func loadEnv() {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return
	}

	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "run-resize: error loading .env file: %v\n", err)
	}
}

func execute() int {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if err := runCLI(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var ee *ExitError
		if errors.As(err, &ee) {
			if ee.Msg != "" {
				fmt.Fprintf(os.Stderr, "run-resize: %s\n", ee.Msg)
			}
			return ee.Code
		}
		fmt.Fprintf(os.Stderr, "run-resize: %v\n", err)
		return ExitInternal
	}
	return ExitOK
}

func main() {
	loadEnv()
	os.Exit(execute())
}
