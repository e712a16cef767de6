package main

import (
	"os"

	"github.com/boddenberg/rotessa-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
