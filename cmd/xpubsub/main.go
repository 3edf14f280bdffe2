package main

import (
	"os"

	"github.com/trickstertwo/xpubsub/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
