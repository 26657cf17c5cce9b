// Package upload runs the operator workflow around a pasted listing: preview
// the parse, review duplicates, then confirm the batch into the registry.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kashf-sd/kashf/engine/domain"
	"github.com/kashf-sd/kashf/engine/listing"
	"github.com/kashf-sd/kashf/engine/registry"
	"github.com/kashf-sd/kashf/pkg/fn"
	"github.com/kashf-sd/kashf/pkg/metrics"
	"github.com/kashf-sd/kashf/pkg/resilience"
)

// Defaults applied to a confirmed batch when the operator leaves them empty.
const (
	DefaultSource     = "admin_upload"
	DefaultUploadedBy = "admin"
)

// PreviewReport is what the operator reviews before confirming.
type PreviewReport struct {
	listing.ParseResult
	Duplicates []string `json:"duplicates"`
	Preview    string   `json:"preview"`
}

// Batch is an operator-confirmed set of parsed vehicles. ContactNumber and
// ListName may override the values read from the listing.
type Batch struct {
	Vehicles      []listing.ParsedVehicle `json:"vehicles"`
	ContactNumber string                  `json:"contact_number,omitempty"`
	ListName      string                  `json:"list_name,omitempty"`
	UploadedBy    string                  `json:"uploaded_by,omitempty"`
}

// Report summarizes a confirmed batch. Existing counts vehicles that were
// already registered; Failed counts everything else that was not stored.
type Report struct {
	Inserted int      `json:"inserted"`
	Existing int      `json:"existing"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

// Service coordinates parsing and persistence. Safe for concurrent use.
type Service struct {
	store        registry.Store
	pub          Publisher
	breaker      *resilience.Breaker
	retry        fn.RetryOpts
	reg          *metrics.Registry
	logger       *slog.Logger
	now          func() time.Time
	previewLimit int
	write        fn.Stage[domain.FoundVehicle, struct{}]
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher announces every stored vehicle through p.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.pub = p } }

// WithMetrics records counters in reg.
func WithMetrics(reg *metrics.Registry) Option { return func(s *Service) { s.reg = reg } }

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithRetry overrides the retry policy for store writes.
func WithRetry(o fn.RetryOpts) Option { return func(s *Service) { s.retry = o } }

// WithBreakerOpts overrides the circuit breaker settings for store writes.
func WithBreakerOpts(o resilience.BreakerOpts) Option {
	return func(s *Service) { s.breaker = s.newBreaker(o) }
}

// WithClock sets the time source for UploadedAt.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithPreviewLimit sets how many vehicles the preview text lists in full.
func WithPreviewLimit(n int) Option { return func(s *Service) { s.previewLimit = n } }

// New creates a Service over store.
func New(store registry.Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		retry:        fn.DefaultRetry,
		reg:          metrics.New(),
		logger:       slog.Default(),
		now:          time.Now,
		previewLimit: listing.DefaultPreviewLimit,
	}
	for _, o := range opts {
		o(s)
	}
	if s.breaker == nil {
		s.breaker = s.newBreaker(resilience.DefaultBreakerOpts)
	}
	s.retry.Retryable = isTransient
	s.write = fn.TracedStage("registry.insert", resilience.BreakerStage[domain.FoundVehicle, struct{}](s.breaker, s.storeInsert))
	return s
}

func (s *Service) storeInsert(ctx context.Context, v domain.FoundVehicle) fn.Result[struct{}] {
	return fn.FromPair(struct{}{}, s.store.Insert(ctx, v))
}

// Count reports how many vehicles the registry holds. It shares the write
// breaker, so an unreachable store fails fast with resilience.ErrCircuitOpen.
func (s *Service) Count(ctx context.Context) (int, error) {
	var n int
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.store.Count(ctx)
		return err
	})
	return n, err
}

// StoreState reports the breaker guarding the registry.
func (s *Service) StoreState() resilience.State { return s.breaker.State() }

func (s *Service) newBreaker(o resilience.BreakerOpts) *resilience.Breaker {
	o.IsFailure = isTransient
	o.OnStateChange = func(from, to resilience.State) {
		s.logger.Warn("store breaker state changed", "from", from.String(), "to", to.String())
		s.reg.Gauge("kashf_store_breaker_state", "Store circuit breaker state (0 closed, 1 open, 2 half-open)").Set(int64(to))
	}
	return resilience.NewBreaker(o)
}

// isTransient reports whether a store error is worth retrying and counts
// against the breaker. Conflicts, bad input, and cancellation are final.
func isTransient(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, domain.ErrAlreadyExists),
		domain.IsValidation(err),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// Preview parses text and reports duplicates and a short summary.
func (s *Service) Preview(ctx context.Context, text string) (PreviewReport, error) {
	if err := ctx.Err(); err != nil {
		return PreviewReport{}, err
	}
	start := time.Now()
	parse := fn.TracedStage("listing.parse", fn.MapStage(listing.Parse), attribute.Int("listing.bytes", len(text)))
	review := fn.TracedStage("listing.review", fn.MapStage(s.review))
	rep, err := fn.Then(parse, review)(ctx, text).Unwrap()
	if err != nil {
		return PreviewReport{}, err
	}
	s.reg.Histogram("kashf_parse_seconds", "Listing parse latency", nil).Since(start)
	s.reg.Counter("kashf_listings_total", "Listings parsed").Inc()
	s.reg.Counter("kashf_lines_total", "Listing lines by outcome", "outcome", "parsed").Add(int64(rep.Stats.Parsed))
	s.reg.Counter("kashf_lines_total", "", "outcome", "skipped").Add(int64(rep.Stats.Skipped))
	s.reg.Counter("kashf_lines_total", "", "outcome", "failed").Add(int64(rep.Stats.Failed))

	s.logger.Info("listing parsed",
		"list", rep.ListName,
		"lines", rep.Stats.TotalLines,
		"parsed", rep.Stats.Parsed,
		"failed", rep.Stats.Failed,
		"duplicates", len(rep.Duplicates),
	)
	return rep, nil
}

func (s *Service) review(res listing.ParseResult) PreviewReport {
	return PreviewReport{
		ParseResult: res,
		Duplicates:  s.Duplicates(res.Vehicles),
		Preview:     listing.Preview(res.Vehicles, s.previewLimit),
	}
}

// Duplicates reports repeated chassis numbers within one batch.
func (s *Service) Duplicates(vehicles []listing.ParsedVehicle) []string {
	return listing.CheckDuplicates(vehicles)
}

// Confirm stores every vehicle of the batch, one at a time. Per-vehicle
// problems are reported in the Report; an error is returned only when the
// batch is unusable or ctx ends.
func (s *Service) Confirm(ctx context.Context, b Batch) (Report, error) {
	if len(b.Vehicles) == 0 {
		return Report{}, domain.NewValidationError("vehicles", "", domain.ErrEmptyBatch)
	}
	if b.ContactNumber != "" {
		if err := domain.ValidateWhatsApp(b.ContactNumber); err != nil {
			return Report{}, err
		}
	}

	rep := Report{Errors: []string{}}
	uploadedAt := s.now().UTC()
	for _, pv := range b.Vehicles {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		v := foundVehicle(pv, b, uploadedAt)
		err := domain.ValidateFoundVehicle(v)
		if err == nil {
			err = s.insert(ctx, v)
		}
		switch {
		case err == nil:
			rep.Inserted++
			s.reg.Counter("kashf_vehicles_total", "Confirmed vehicles by outcome", "outcome", "inserted").Inc()
			s.announce(ctx, v)
		case errors.Is(err, domain.ErrAlreadyExists):
			rep.Existing++
			rep.Errors = append(rep.Errors, existsMessage(pv))
			s.reg.Counter("kashf_vehicles_total", "", "outcome", "existing").Inc()
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return rep, err
		default:
			rep.Failed++
			rep.Errors = append(rep.Errors, fmt.Sprintf("السطر %d: %v", pv.LineNumber, err))
			s.reg.Counter("kashf_vehicles_total", "", "outcome", "failed").Inc()
			s.logger.Error("vehicle not stored", "line", pv.LineNumber, "chassis", pv.ChassisDigits, "err", err)
		}
	}

	s.logger.Info("batch confirmed",
		"list", b.ListName,
		"inserted", rep.Inserted,
		"existing", rep.Existing,
		"failed", rep.Failed,
	)
	return rep, nil
}

func (s *Service) insert(ctx context.Context, v domain.FoundVehicle) error {
	_, err := fn.Retry(ctx, s.retry, func(ctx context.Context) fn.Result[struct{}] {
		return s.write(ctx, v)
	}).Unwrap()
	return err
}

func (s *Service) announce(ctx context.Context, v domain.FoundVehicle) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, foundEvent(v)); err != nil {
		s.reg.Counter("kashf_publish_errors_total", "Failed found-vehicle announcements").Inc()
		s.logger.Warn("announce vehicle", "id", v.ID, "err", err)
	}
}

func foundVehicle(pv listing.ParsedVehicle, b Batch, at time.Time) domain.FoundVehicle {
	v := domain.FoundVehicle{
		CarName:       pv.CarName,
		ChassisFull:   pv.ChassisFull,
		ChassisDigits: pv.ChassisDigits,
		PlateFull:     pv.PlateFull,
		PlateDigits:   pv.PlateDigits,
		Color:         pv.Color,
		ExtraDetails:  pv.RawLine,
		Source:        b.ListName,
		UploadedBy:    b.UploadedBy,
		UploadedAt:    at,
	}
	if b.ContactNumber != "" {
		v.ContactNumber = domain.FormatWhatsApp(b.ContactNumber)
	}
	if v.Source == "" {
		v.Source = DefaultSource
	}
	if v.UploadedBy == "" {
		v.UploadedBy = b.ContactNumber
	}
	if v.UploadedBy == "" {
		v.UploadedBy = DefaultUploadedBy
	}
	v.ID = registry.VehicleID(v)
	return v
}

func existsMessage(pv listing.ParsedVehicle) string {
	if pv.ChassisDigits != "" {
		return fmt.Sprintf("السطر %d: شاسي %s موجود مسبقاً", pv.LineNumber, pv.ChassisDigits)
	}
	return fmt.Sprintf("السطر %d: لوحة %s موجود مسبقاً", pv.LineNumber, pv.PlateFull)
}
