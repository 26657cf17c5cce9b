package upload

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kashf-sd/kashf/engine/domain"
	"github.com/kashf-sd/kashf/pkg/natsutil"
)

// SubjectVehicleFound carries a FoundEvent for every newly stored vehicle.
const SubjectVehicleFound = "registry.vehicle.found"

// FoundEvent announces a vehicle that entered the registry.
type FoundEvent struct {
	ID            string    `json:"id"`
	CarName       string    `json:"car_name"`
	ChassisDigits string    `json:"chassis_digits,omitempty"`
	PlateDigits   string    `json:"plate_digits,omitempty"`
	Source        string    `json:"source"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

func foundEvent(v domain.FoundVehicle) FoundEvent {
	return FoundEvent{
		ID:            v.ID,
		CarName:       v.CarName,
		ChassisDigits: v.ChassisDigits,
		PlateDigits:   v.PlateDigits,
		Source:        v.Source,
		UploadedAt:    v.UploadedAt,
	}
}

// Publisher announces stored vehicles to interested parties, such as the
// matcher that pairs them with open search requests.
type Publisher interface {
	Publish(ctx context.Context, e FoundEvent) error
}

// NATSPublisher publishes FoundEvents on SubjectVehicleFound.
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher creates a publisher over an open connection.
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

func (p *NATSPublisher) Publish(ctx context.Context, e FoundEvent) error {
	return natsutil.Publish(ctx, p.nc, SubjectVehicleFound, e)
}
