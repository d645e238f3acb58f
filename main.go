package main

import (
	"os"

	"discord-summarizer/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
