package main

import (
	"os"

	"github.com/samuelfneumann/inforeg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
