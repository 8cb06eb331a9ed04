package main

import (
	"os"

	"github.com/ollie314/Akumuli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
