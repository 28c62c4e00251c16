package main

import (
	"os"

	"promptq/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
