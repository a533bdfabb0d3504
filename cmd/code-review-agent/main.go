package main

import (
	"os"

	"github.com/Paul-Clue/code-review-agent/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
