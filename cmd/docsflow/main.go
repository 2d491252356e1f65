package main

import (
	_ "github.com/joho/godotenv/autoload"

	"docsflow/internal/cli"
)

func main() {
	cli.Execute()
}
