package main

import (
	"os"

	"github.com/dshills/vaahai/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
