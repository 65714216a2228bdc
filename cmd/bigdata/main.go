package main

import (
	"os"

	"github.com/danieljhkim/bigdata-wsl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
