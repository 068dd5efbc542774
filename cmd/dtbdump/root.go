package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dtbkit/dtbkit/internal/logging"
)

var (
	verbose bool
	quiet   bool
	jsonOut bool
	useMmap bool
)

var rootCmd = &cobra.Command{
	Use:   "dtbdump",
	Short: "Inspect and patch Devicetree Blob (DTB) files",
	Long: `dtbdump reads, dumps, queries, patches, and diffs Devicetree Blob
files without copying the structure block: decoding walks the file's bytes
in place (or a read-only mmap with --mmap).`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&useMmap, "mmap", false, "map the input file read-only instead of reading it into memory")

	cobra.OnInitialize(func() {
		logging.Init(logging.Options{Enabled: verbose, Level: slog.LevelDebug})
	})
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
