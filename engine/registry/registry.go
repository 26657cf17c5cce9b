// Package registry stores found vehicles and answers chassis/plate lookups.
package registry

import (
	"context"

	"github.com/google/uuid"

	"github.com/kashf-sd/kashf/engine/domain"
	"github.com/kashf-sd/kashf/pkg/repo"
)

// Store persists found vehicles. Insert returns an error wrapping
// domain.ErrAlreadyExists when the vehicle's ID or chassis is taken; Get and
// Delete wrap domain.ErrNotFound for unknown IDs.
type Store interface {
	Insert(ctx context.Context, v domain.FoundVehicle) error
	Get(ctx context.Context, id string) (domain.FoundVehicle, error)
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.FoundVehicle, error)
	// Recent pages through vehicles, newest upload first. A non-positive
	// limit means DefaultPageSize.
	Recent(ctx context.Context, page repo.ListOpts) ([]domain.FoundVehicle, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// DefaultPageSize bounds Recent when no limit is given.
const DefaultPageSize = 100

var vehicleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("kashf/found-vehicle"))

// VehicleID derives a stable ID from the vehicle's key, so re-uploading the
// same chassis (or plate, without a chassis) yields the same ID.
func VehicleID(v domain.FoundVehicle) string {
	return uuid.NewSHA1(vehicleNamespace, []byte(domain.VehicleKey(v))).String()
}

func withID(v domain.FoundVehicle) domain.FoundVehicle {
	if v.ID == "" {
		v.ID = VehicleID(v)
	}
	return v
}
