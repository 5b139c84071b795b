package main

import (
	"os"

	"github.com/sporefield/mycelium/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
