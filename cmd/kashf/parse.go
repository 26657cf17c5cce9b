package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kashf-sd/kashf/engine/listing"
	"github.com/kashf-sd/kashf/pkg/fn"
)

type parsed struct {
	Source string              `json:"source"`
	Result listing.ParseResult `json:"result"`
	err    error
}

// parseSources parses every source concurrently, keeping input order.
func parseSources(srcs []source) []parsed {
	return fn.ParMap(srcs, runtime.GOMAXPROCS(0), func(s source) parsed {
		if s.err != nil {
			return parsed{Source: s.name, err: s.err}
		}
		return parsed{Source: s.name, Result: listing.Parse(s.text)}
	})
}

func parseCmd() *cobra.Command {
	var (
		asJSON bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse listings and print the extracted vehicles",
		Example: `  kashf parse list.txt
  pbpaste | kashf parse --json
  kashf parse a.txt b.txt --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := parseSources(readSources(args, cmd.InOrStdin()))
			for _, p := range results {
				if p.err != nil {
					return fmt.Errorf("read %s: %w", p.Source, p.err)
				}
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			for i, p := range results {
				if len(results) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "== %s ==\n", p.Source)
				}
				printResult(out, p.Result, limit)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print full results as JSON")
	cmd.Flags().IntVar(&limit, "limit", listing.DefaultPreviewLimit, "vehicles listed in full")
	return cmd
}

func printResult(w io.Writer, r listing.ParseResult, limit int) {
	if r.ListName != "" {
		fmt.Fprintf(w, "الكشف: %s\n", r.ListName)
	}
	if r.ContactNumber != "" {
		fmt.Fprintf(w, "التواصل: %s\n", r.ContactNumber)
	}
	if len(r.Vehicles) > 0 {
		fmt.Fprintln(w, listing.Preview(r.Vehicles, limit))
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "! %s\n", e)
	}
	s := r.Stats
	fmt.Fprintf(w, "lines=%d parsed=%d skipped=%d failed=%d\n", s.TotalLines, s.Parsed, s.Skipped, s.Failed)
}

func dupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dups [file]",
		Short: "Report chassis numbers repeated within a listing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := parseSources(readSources(args, cmd.InOrStdin()))[0]
			if p.err != nil {
				return fmt.Errorf("read %s: %w", p.Source, p.err)
			}
			dups := listing.CheckDuplicates(p.Result.Vehicles)
			out := cmd.OutOrStdout()
			if len(dups) == 0 {
				fmt.Fprintln(out, "no duplicates")
				return nil
			}
			for _, d := range dups {
				fmt.Fprintln(out, d)
			}
			return nil
		},
	}
}
