// Package main seeds the keeper store with an investigator roster.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/keeperdesk/keeperdesk/internal/platform/config"
	"github.com/keeperdesk/keeperdesk/internal/tools/rosterseed"
)

func main() {
	cfg, err := rosterseed.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.UsageExitf("parse flags: %v", err)
	}
	if err := rosterseed.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("seed roster: %v", err)
	}
}
