package main

import (
	"log"

	"trivia-session-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
