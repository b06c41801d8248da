// cmd/flavorctl/main.go
package main

import (
	"os"

	"flavor-solver/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
