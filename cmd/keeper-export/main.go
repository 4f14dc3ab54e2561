// Package main exports the keeper session log as CSV.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/keeperdesk/keeperdesk/internal/platform/config"
	"github.com/keeperdesk/keeperdesk/internal/tools/logexport"
)

func main() {
	cfg, err := logexport.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.UsageExitf("parse flags: %v", err)
	}
	if err := logexport.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("export log: %v", err)
	}
}
