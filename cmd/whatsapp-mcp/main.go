package main

import (
	"fmt"
	"os"

	"github.com/clippy-oss/homie/whatsapp-mcp/cmd/whatsapp-mcp/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
