package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kashf-sd/kashf/engine/registry"
	"github.com/kashf-sd/kashf/engine/upload"
	"github.com/kashf-sd/kashf/pkg/metrics"
	"github.com/kashf-sd/kashf/pkg/natsutil"
)

type loadOpts struct {
	neo4jURL, neo4jUser, neo4jPass, neo4jDB string
	natsURL                                 string
	contact, listName, uploadedBy           string
}

func loadCmd(verbose *bool) *cobra.Command {
	var o loadOpts
	cmd := &cobra.Command{
		Use:   "load [file...]",
		Short: "Parse listings and confirm their vehicles into the registry",
		Long: `Parse each listing and store its vehicles. Without --neo4j the registry is
kept in memory, which makes load a dry run that still reports conflicts
within and across the given listings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), *verbose)
			ctx := commandContext(cmd)

			var store registry.Store = registry.NewMemoryStore()
			if o.neo4jURL != "" {
				neo, closeNeo, err := registry.Dial(ctx, o.neo4jURL, o.neo4jUser, o.neo4jPass, o.neo4jDB)
				if err != nil {
					return err
				}
				defer closeNeo(context.Background())
				store = neo
			}

			opts := []upload.Option{upload.WithLogger(logger), upload.WithMetrics(metrics.New())}
			if o.natsURL != "" {
				nc, err := natsutil.Connect(o.natsURL, "kashf-cli", logger)
				if err != nil {
					return err
				}
				defer nc.Drain()
				opts = append(opts, upload.WithPublisher(upload.NewNATSPublisher(nc)))
			}
			svc := upload.New(store, opts...)

			out := cmd.OutOrStdout()
			if o.neo4jURL == "" {
				fmt.Fprintln(out, "dry run: registry in memory")
			}
			for _, src := range readSources(args, cmd.InOrStdin()) {
				if src.err != nil {
					return fmt.Errorf("read %s: %w", src.name, src.err)
				}
				if err := loadOne(ctx, out, svc, src, o); err != nil {
					return err
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.neo4jURL, "neo4j", "", "Neo4j URL, e.g. neo4j://localhost:7687")
	f.StringVar(&o.neo4jUser, "neo4j-user", "neo4j", "Neo4j user")
	f.StringVar(&o.neo4jPass, "neo4j-pass", "", "Neo4j password")
	f.StringVar(&o.neo4jDB, "neo4j-database", "", "Neo4j database (server default when empty)")
	f.StringVar(&o.natsURL, "nats", "", "NATS URL to announce stored vehicles on")
	f.StringVar(&o.contact, "contact", "", "contact number, overrides the listing's")
	f.StringVar(&o.listName, "list-name", "", "list name, overrides the listing's")
	f.StringVar(&o.uploadedBy, "uploaded-by", "", "uploader recorded on each vehicle")
	return cmd
}

func loadOne(ctx context.Context, out io.Writer, svc *upload.Service, src source, o loadOpts) error {
	prev, err := svc.Preview(ctx, src.text)
	if err != nil {
		return fmt.Errorf("%s: %w", src.name, err)
	}
	if len(prev.Vehicles) == 0 {
		fmt.Fprintf(out, "%s: nothing to load (%d failed lines)\n", src.name, prev.Stats.Failed)
		return nil
	}
	b := upload.Batch{
		Vehicles:      prev.Vehicles,
		ContactNumber: prev.ContactNumber,
		ListName:      prev.ListName,
		UploadedBy:    o.uploadedBy,
	}
	if o.contact != "" {
		b.ContactNumber = o.contact
	}
	if o.listName != "" {
		b.ListName = o.listName
	}
	rep, err := svc.Confirm(ctx, b)
	if err != nil {
		return fmt.Errorf("%s: %w", src.name, err)
	}
	fmt.Fprintf(out, "%s: inserted=%d existing=%d failed=%d\n", src.name, rep.Inserted, rep.Existing, rep.Failed)
	for _, e := range rep.Errors {
		fmt.Fprintf(out, "  ! %s\n", e)
	}
	return nil
}
