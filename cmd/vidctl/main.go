package main

import (
	"os"

	"github.com/vidshelf/backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
