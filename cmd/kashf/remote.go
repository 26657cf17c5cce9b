package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/kashf-sd/kashf/engine/domain"
	"github.com/kashf-sd/kashf/engine/registry"
	"github.com/kashf-sd/kashf/engine/upload"
	"github.com/kashf-sd/kashf/pkg/natsutil"
)

var errNoBackend = errors.New("one of --nats or --neo4j is required")

func searchCmd(verbose *bool) *cobra.Command {
	var (
		q       domain.SearchQuery
		o       loadOpts
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Look up a chassis or plate in a running registry",
		Example: `  kashf search --nats nats://localhost:4222 --chassis 46160
  kashf search --neo4j neo4j://localhost:7687 --neo4j-pass secret --plate 7072`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := domain.ValidateSearchQuery(q); err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), *verbose)
			ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
			defer cancel()

			var (
				found []domain.FoundVehicle
				err   error
			)
			switch {
			case o.natsURL != "":
				var nc *nats.Conn
				if nc, err = natsutil.Connect(o.natsURL, "kashf-cli", logger); err != nil {
					return err
				}
				defer nc.Close()
				found, err = registry.SearchRemote(ctx, nc, q)
			case o.neo4jURL != "":
				store, closeNeo, derr := registry.Dial(ctx, o.neo4jURL, o.neo4jUser, o.neo4jPass, o.neo4jDB)
				if derr != nil {
					return derr
				}
				defer closeNeo(context.Background())
				found, err = store.Search(ctx, q)
			default:
				return errNoBackend
			}
			if natsutil.IsRemote(err) {
				return fmt.Errorf("registry refused search: %w", err)
			}
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			printFound(cmd.OutOrStdout(), found)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Chassis, "chassis", "", "chassis number or a part of it")
	f.StringVar(&q.Plate, "plate", "", "plate number")
	f.StringVar(&o.natsURL, "nats", "", "NATS URL of a server answering registry searches")
	f.StringVar(&o.neo4jURL, "neo4j", "", "Neo4j URL to search directly")
	f.StringVar(&o.neo4jUser, "neo4j-user", "neo4j", "Neo4j user")
	f.StringVar(&o.neo4jPass, "neo4j-pass", "", "Neo4j password")
	f.StringVar(&o.neo4jDB, "neo4j-database", "", "Neo4j database (server default when empty)")
	f.DurationVar(&timeout, "timeout", 5*time.Second, "give up after this long")
	return cmd
}

func printFound(out io.Writer, found []domain.FoundVehicle) {
	if len(found) == 0 {
		fmt.Fprintln(out, "لم يتم العثور على نتائج")
		return
	}
	fmt.Fprintf(out, "تم العثور على %d نتيجة\n", len(found))
	for _, v := range found {
		fmt.Fprintf(out, "- %s", v.CarName)
		if v.ChassisDigits != "" {
			fmt.Fprintf(out, "  شاسي: %s", v.ChassisDigits)
		}
		if v.PlateFull != "" {
			fmt.Fprintf(out, "  لوحة: %s", v.PlateFull)
		}
		if v.ContactNumber != "" {
			fmt.Fprintf(out, "  تواصل: %s", v.ContactNumber)
		}
		fmt.Fprintln(out)
	}
}

func watchCmd(verbose *bool) *cobra.Command {
	var (
		natsURL string
		count   int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print vehicles as they are stored in the registry",
		Long: `Subscribe to registry announcements and print one line per stored vehicle
until interrupted, or until --count vehicles have been seen.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if natsURL == "" {
				return errors.New("--nats is required")
			}
			logger := newLogger(cmd.ErrOrStderr(), *verbose)
			nc, err := natsutil.Connect(natsURL, "kashf-watch", logger)
			if err != nil {
				return err
			}
			defer nc.Close()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
			defer stop()
			return watch(ctx, cmd.OutOrStdout(), nc, count, logger)
		},
	}
	cmd.Flags().StringVar(&natsURL, "nats", "", "NATS URL")
	cmd.Flags().IntVar(&count, "count", 0, "exit after this many vehicles (0 waits forever)")
	return cmd
}

func watch(ctx context.Context, out io.Writer, nc *nats.Conn, count int, logger *slog.Logger) error {
	events := make(chan upload.FoundEvent)
	sub, err := natsutil.Subscribe(nc, upload.SubjectVehicleFound,
		func(_ context.Context, e upload.FoundEvent) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		},
		func(m *nats.Msg, err error) {
			logger.Warn("dropping malformed event", "subject", m.Subject, "err", err)
		})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", upload.SubjectVehicleFound, err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		return err
	}
	logger.Debug("watching", "subject", upload.SubjectVehicleFound)

	for seen := 0; count <= 0 || seen < count; seen++ {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			key := e.ChassisDigits
			if key == "" {
				key = e.PlateDigits
			}
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", e.UploadedAt.Format(time.RFC3339), e.CarName, key, e.Source)
		}
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
