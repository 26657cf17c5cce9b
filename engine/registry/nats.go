package registry

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/kashf-sd/kashf/engine/domain"
	"github.com/kashf-sd/kashf/pkg/natsutil"
)

// SubjectSearch is the request/reply subject for registry lookups.
const SubjectSearch = "registry.vehicle.search"

// ServeSearch answers domain.SearchQuery requests on SubjectSearch from store.
func ServeSearch(nc *nats.Conn, store Store) (*nats.Subscription, error) {
	sub, err := natsutil.Respond(nc, SubjectSearch, func(ctx context.Context, q domain.SearchQuery) ([]domain.FoundVehicle, error) {
		if err := domain.ValidateSearchQuery(q); err != nil {
			return nil, err
		}
		return store.Search(ctx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("serve %s: %w", SubjectSearch, err)
	}
	return sub, nil
}

// SearchRemote queries a registry served elsewhere with ServeSearch.
func SearchRemote(ctx context.Context, nc *nats.Conn, q domain.SearchQuery) ([]domain.FoundVehicle, error) {
	return natsutil.Request[domain.SearchQuery, []domain.FoundVehicle](ctx, nc, SubjectSearch, q)
}
