package main

import (
	"fmt"
	"io"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "0.1"

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "run-resize %s\n", Version)
}
