package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/kashf-sd/kashf/engine/domain"
	"github.com/kashf-sd/kashf/pkg/repo"
)

const (
	vehicleLabel = "FoundVehicle"

	codeConstraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"
)

var schemaStatements = []string{
	`CREATE CONSTRAINT found_vehicle_id IF NOT EXISTS FOR (n:FoundVehicle) REQUIRE n.id IS UNIQUE`,
	`CREATE CONSTRAINT found_vehicle_chassis IF NOT EXISTS FOR (n:FoundVehicle) REQUIRE n.chassis_digits IS UNIQUE`,
	`CREATE INDEX found_vehicle_plate IF NOT EXISTS FOR (n:FoundVehicle) ON (n.plate_digits)`,
}

// Neo4jStore keeps found vehicles as FoundVehicle nodes.
type Neo4jStore struct {
	repo *repo.Neo4jRepo[domain.FoundVehicle, string]
}

// NewNeo4jStore creates a store over driver.
func NewNeo4jStore(driver neo4j.DriverWithContext, opts ...repo.Neo4jOption[domain.FoundVehicle, string]) *Neo4jStore {
	return &Neo4jStore{
		repo: repo.NewNeo4jRepo[domain.FoundVehicle, string](driver, vehicleLabel, vehicleToMap, vehicleFromRecord, opts...),
	}
}

var _ Store = (*Neo4jStore)(nil)

// EnsureSchema creates the uniqueness constraints Insert relies on.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := s.repo.Exec(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Neo4jStore) Insert(ctx context.Context, v domain.FoundVehicle) error {
	if _, err := s.repo.Create(ctx, withID(v)); err != nil {
		return fmt.Errorf("registry insert: %w", mapErr(err))
	}
	return nil
}

func (s *Neo4jStore) Get(ctx context.Context, id string) (domain.FoundVehicle, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.FoundVehicle{}, fmt.Errorf("registry get: %w", mapErr(err))
	}
	return v, nil
}

// Search matches chassis digits as a substring and plate digits exactly.
// When both are given a vehicle matching either is returned.
func (s *Neo4jStore) Search(ctx context.Context, q domain.SearchQuery) ([]domain.FoundVehicle, error) {
	q = q.Normalized()
	var conds []string
	params := map[string]any{}
	if q.Chassis != "" {
		conds = append(conds, "n.chassis_digits CONTAINS $chassis")
		params["chassis"] = q.Chassis
	}
	if q.Plate != "" {
		conds = append(conds, "n.plate_digits = $plate")
		params["plate"] = q.Plate
	}
	if len(conds) == 0 {
		return nil, domain.NewValidationError("query", "", domain.ErrEmptyQuery)
	}
	cypher := fmt.Sprintf("MATCH (n:%s) WHERE %s RETURN n ORDER BY n.uploaded_at DESC", vehicleLabel, strings.Join(conds, " OR "))
	items, err := s.repo.Query(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("registry search: %w", err)
	}
	return items, nil
}

func (s *Neo4jStore) Recent(ctx context.Context, page repo.ListOpts) ([]domain.FoundVehicle, error) {
	if page.Limit <= 0 {
		page.Limit = DefaultPageSize
	}
	page.OrderBy, page.Desc = "uploaded_at", true
	items, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("registry recent: %w", err)
	}
	if items == nil {
		items = []domain.FoundVehicle{}
	}
	return items, nil
}

func (s *Neo4jStore) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("registry delete: %w", mapErr(err))
	}
	return nil
}

func (s *Neo4jStore) Count(ctx context.Context) (int, error) {
	var n int64
	cypher := fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS c", vehicleLabel)
	err := s.repo.Each(ctx, cypher, nil, func(rec *neo4j.Record) error {
		c, _, err := neo4j.GetRecordValue[int64](rec, "c")
		n = c
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("registry count: %w", err)
	}
	return int(n), nil
}

func mapErr(err error) error {
	var ne *neo4j.Neo4jError
	switch {
	case errors.As(err, &ne) && ne.Code == codeConstraintViolation:
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, ne.Msg)
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return err
}

// vehicleToMap leaves out empty optional fields so plate-only vehicles do not
// collide on an empty chassis_digits value.
func vehicleToMap(v domain.FoundVehicle) map[string]any {
	m := map[string]any{
		"id":       v.ID,
		"car_name": v.CarName,
	}
	optional := map[string]string{
		"chassis_full":   v.ChassisFull,
		"chassis_digits": v.ChassisDigits,
		"plate_full":     v.PlateFull,
		"plate_digits":   v.PlateDigits,
		"color":          v.Color,
		"extra_details":  v.ExtraDetails,
		"source":         v.Source,
		"contact_number": v.ContactNumber,
		"uploaded_by":    v.UploadedBy,
	}
	for k, s := range optional {
		if s != "" {
			m[k] = s
		}
	}
	if !v.UploadedAt.IsZero() {
		m["uploaded_at"] = v.UploadedAt
	}
	return m
}

func vehicleFromRecord(rec *neo4j.Record) (domain.FoundVehicle, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return domain.FoundVehicle{}, err
	}
	p := node.Props
	v := domain.FoundVehicle{
		ID:            strProp(p, "id"),
		CarName:       strProp(p, "car_name"),
		ChassisFull:   strProp(p, "chassis_full"),
		ChassisDigits: strProp(p, "chassis_digits"),
		PlateFull:     strProp(p, "plate_full"),
		PlateDigits:   strProp(p, "plate_digits"),
		Color:         strProp(p, "color"),
		ExtraDetails:  strProp(p, "extra_details"),
		Source:        strProp(p, "source"),
		ContactNumber: strProp(p, "contact_number"),
		UploadedBy:    strProp(p, "uploaded_by"),
	}
	if t, ok := p["uploaded_at"].(time.Time); ok {
		v.UploadedAt = t
	}
	return v, nil
}

func strProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

// Dial connects to Neo4j at url, verifies the connection and ensures the
// schema. The returned close func releases the driver.
func Dial(ctx context.Context, url, user, pass, database string) (*Neo4jStore, func(context.Context) error, error) {
	driver, err := neo4j.NewDriverWithContext(url, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		return nil, nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, nil, fmt.Errorf("neo4j connect %s: %w", url, err)
	}
	var opts []repo.Neo4jOption[domain.FoundVehicle, string]
	if database != "" {
		opts = append(opts, repo.WithDatabase[domain.FoundVehicle, string](database))
	}
	store := NewNeo4jStore(driver, opts...)
	if err := store.EnsureSchema(ctx); err != nil {
		driver.Close(ctx)
		return nil, nil, err
	}
	return store, driver.Close, nil
}
