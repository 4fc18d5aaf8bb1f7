package main

import (
	"os"

	"usagelens/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
