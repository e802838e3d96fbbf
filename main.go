package main

import (
	"os"

	"github.com/RixhersAjazi/schedulemaker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
