// Command kashf parses Arabic vehicle listings from files or stdin, loads
// them into the registry, and queries a running registry.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "kashf",
		Short: "Vehicle listing (كشف) extraction",
		Long: `kashf extracts recovered-vehicle records from pasted Arabic listings.

Each line of a listing is classified; vehicle lines yield a car name, chassis
number, plate and colour. Listings are read from files, or from stdin when no
file (or "-") is given.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(parseCmd())
	root.AddCommand(dupsCmd())
	root.AddCommand(loadCmd(&verbose))
	root.AddCommand(searchCmd(&verbose))
	root.AddCommand(watchCmd(&verbose))
	return root
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// source is one listing to process.
type source struct {
	name string
	text string
	err  error
}

// readSources loads each named file, or stdin for "-" and for no names.
func readSources(names []string, stdin io.Reader) []source {
	if len(names) == 0 {
		names = []string{"-"}
	}
	out := make([]source, len(names))
	for i, name := range names {
		out[i].name = name
		var data []byte
		if name == "-" {
			out[i].name = "stdin"
			data, out[i].err = io.ReadAll(stdin)
		} else {
			data, out[i].err = os.ReadFile(filepath.Clean(name))
		}
		out[i].text = string(data)
	}
	return out
}
