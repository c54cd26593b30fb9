package main

import (
	"os"

	"github.com/dshills/prreview/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
