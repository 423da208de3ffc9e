package main

import (
	"os"

	"github.com/bianoble/modsync/cmd/modsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
