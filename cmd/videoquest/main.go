package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/videoquest/videoquest/internal/commands"
)

func main() {
	// API keys for the coach may live in a local .env file.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
