package main

import (
	"os"

	"github.com/jamesprial/go-reddit-media/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
