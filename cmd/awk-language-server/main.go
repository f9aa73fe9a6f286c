// Command awk-language-server runs the AWK language server; its stdio
// subcommand runs it over stdio, the transport every LSP client expects.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/NorthIsUp/awk-language-server/internal/server"
)

// Version is set during the build process using ldflags.
var Version = "(dev) v0.0.0"

func main() {
	var logfile string
	var configPath string

	root := &cobra.Command{
		Use:     "awk-language-server",
		Short:   "AWK language server",
		Version: Version,
	}
	root.PersistentFlags().StringVar(&logfile, "logfile", "", "path to log file")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file merged under client-sent settings")

	stdio := &cobra.Command{
		Use:   "stdio",
		Short: "run the language server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(logfile, configPath)
		},
	}
	root.AddCommand(stdio)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(logfile, configPath string) error {
	if logfile != "" {
		logFile, err := os.OpenFile(logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()
		log.SetOutput(logFile)
		log.SetFlags(log.Ldate | log.Ltime | log.Llongfile)
		log.Println("starting awk-language-server...")
	} else {
		log.SetOutput(io.Discard)
	}
	commonlog.Configure(2, nil) // logger used internally by glsp

	srv, err := server.New(configPath)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.RunStdio(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
