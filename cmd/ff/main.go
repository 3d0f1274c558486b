package main

import (
	"os"

	"github.com/ndoemo02/Freeflow-Final/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
