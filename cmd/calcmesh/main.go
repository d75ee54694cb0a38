// Command calcmesh runs and drives the calculator, unit converter and
// statistics services.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/calcmesh/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
