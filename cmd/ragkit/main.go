package main

import (
	"github.com/joho/godotenv"
	"ragkit/internal/cli"
)

func main() {
	// API keys are commonly kept in a local .env during development; a
	// missing file is fine.
	_ = godotenv.Load()

	cli.Execute()
}
