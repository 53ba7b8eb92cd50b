package main

import (
	"context"
	"os"

	"github.com/kdatlt/foodgram/cmd/commands"
)

func main() {
	if err := commands.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}
