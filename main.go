package main

import (
	"os"

	"github.com/kyleking/chart-intent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
