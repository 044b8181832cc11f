package main

import (
	"github.com/planilha-labs/planilha-cli/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
