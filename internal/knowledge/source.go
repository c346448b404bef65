package knowledge

// source.go reads current source-entity data from the marketplace tables.
// This is a narrow read contract: one fetch per (source_type, source_id),
// dispatched through a per-type lookup table, plus ID listing for full
// resyncs. It is not a general query interface.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SourceReader fetches and formats the current state of a source entity.
// A nil record with a nil error means the entity no longer exists.
type SourceReader interface {
	Fetch(ctx context.Context, sourceType SourceType, sourceID string) (*SourceRecord, error)
}

// fetchFunc loads one entity by ID and formats it. nil, nil means gone.
type fetchFunc func(ctx context.Context, db querier, sourceID string) (*SourceRecord, error)

// fetchers dispatches per source type. Adding an entity type is one new
// row here plus its formatter in format.go.
var fetchers = map[SourceType]fetchFunc{
	SourceTypeEquipment: fetchEquipment,
	SourceTypeUser:      fetchUser,
	SourceTypeLabour:    fetchLabour,
	SourceTypeReview:    fetchReview,
	SourceTypeBooking:   fetchBooking,
}

// sourceTables maps each source type to the table its IDs are listed from.
var sourceTables = map[SourceType]string{
	SourceTypeEquipment: "equipment",
	SourceTypeUser:      "user_profiles",
	SourceTypeLabour:    "labour_profiles",
	SourceTypeReview:    "reviews",
	SourceTypeBooking:   "bookings",
}

// SourceStore is the pgx-backed SourceReader over the marketplace tables.
//
// SourceStore is safe for concurrent use by multiple goroutines.
type SourceStore struct {
	db     querier
	logger *slog.Logger
}

// NewSourceStore creates a SourceStore backed by the given pool.
func NewSourceStore(pool *pgxpool.Pool, logger *slog.Logger) (*SourceStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceStore{db: pool, logger: logger}, nil
}

// Fetch loads the entity keyed by (sourceType, sourceID) and renders it
// through the per-type formatter. Returns nil, nil when the entity no
// longer exists — the caller decides whether that is a benign skip.
func (s *SourceStore) Fetch(ctx context.Context, sourceType SourceType, sourceID string) (*SourceRecord, error) {
	fetch, ok := fetchers[sourceType]
	if !ok {
		return nil, fmt.Errorf("unknown source type: %q", sourceType)
	}
	return fetch(ctx, s.db, sourceID)
}

// ListIDs returns all entity IDs of the given source type, used by full
// resyncs to enqueue every entity.
func (s *SourceStore) ListIDs(ctx context.Context, sourceType SourceType) ([]string, error) {
	table, ok := sourceTables[sourceType]
	if !ok {
		return nil, fmt.Errorf("unknown source type: %q", sourceType)
	}

	// table comes from the closed sourceTables map, never from input.
	rows, err := s.db.Query(ctx, `SELECT id FROM `+table+` ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("listing %s ids: %w", sourceType, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning %s id: %w", sourceType, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s ids: %w", sourceType, err)
	}
	return ids, nil
}

func fetchEquipment(ctx context.Context, db querier, sourceID string) (*SourceRecord, error) {
	var e Equipment
	err := db.QueryRow(ctx,
		`SELECT id, name, coalesce(category, ''), coalesce(description, ''), coalesce(brand, ''),
		        price_per_day, coalesce(location_name, ''), coalesce(features, '{}'),
		        owner_id, is_available, rating
		 FROM equipment WHERE id = $1`,
		sourceID,
	).Scan(&e.ID, &e.Name, &e.Category, &e.Description, &e.Brand,
		&e.PricePerDay, &e.LocationName, &e.Features,
		&e.OwnerID, &e.IsAvailable, &e.Rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching equipment %s: %w", sourceID, err)
	}

	record := FormatEquipment(e)
	return &record, nil
}

func fetchUser(ctx context.Context, db querier, sourceID string) (*SourceRecord, error) {
	var u UserProfile
	err := db.QueryRow(ctx,
		`SELECT id, coalesce(name, ''), coalesce(roles, '{}'), coalesce(bio, ''),
		        coalesce(address, ''), coalesce(pincode, '')
		 FROM user_profiles WHERE id = $1`,
		sourceID,
	).Scan(&u.ID, &u.Name, &u.Roles, &u.Bio, &u.Address, &u.Pincode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", sourceID, err)
	}

	record := FormatUser(u)
	return &record, nil
}

func fetchLabour(ctx context.Context, db querier, sourceID string) (*SourceRecord, error) {
	var l LabourProfile
	err := db.QueryRow(ctx,
		`SELECT l.id, coalesce(u.name, ''), coalesce(l.skills, '{}'), coalesce(l.bio, ''),
		        l.daily_rate, coalesce(l.location_name, ''), l.experience_years,
		        coalesce(l.availability, ''), l.average_rating
		 FROM labour_profiles l
		 LEFT JOIN user_profiles u ON u.id = l.user_id
		 WHERE l.id = $1`,
		sourceID,
	).Scan(&l.ID, &l.UserName, &l.Skills, &l.Bio,
		&l.DailyRate, &l.LocationName, &l.ExperienceYears,
		&l.Availability, &l.Rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching labour %s: %w", sourceID, err)
	}

	record := FormatLabour(l)
	return &record, nil
}

func fetchReview(ctx context.Context, db querier, sourceID string) (*SourceRecord, error) {
	var r Review
	err := db.QueryRow(ctx,
		`SELECT r.id, r.equipment_id, coalesce(e.name, ''), coalesce(u.name, ''),
		        coalesce(r.comment, ''), r.rating
		 FROM reviews r
		 LEFT JOIN equipment e ON e.id = r.equipment_id
		 LEFT JOIN user_profiles u ON u.id = r.reviewer_id
		 WHERE r.id = $1`,
		sourceID,
	).Scan(&r.ID, &r.EquipmentID, &r.EquipmentName, &r.ReviewerName,
		&r.Comment, &r.Rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching review %s: %w", sourceID, err)
	}

	record := FormatReview(r)
	return &record, nil
}

func fetchBooking(ctx context.Context, db querier, sourceID string) (*SourceRecord, error) {
	var b Booking
	err := db.QueryRow(ctx,
		`SELECT b.id, b.equipment_id, coalesce(e.name, ''), b.renter_id, coalesce(u.name, ''),
		        b.status, coalesce(b.start_date::text, ''), coalesce(b.end_date::text, ''),
		        b.total_days, b.total_amount,
		        coalesce((SELECT p.status FROM payments p
		                  WHERE p.booking_id = b.id
		                  ORDER BY p.created_at DESC LIMIT 1), '')
		 FROM bookings b
		 LEFT JOIN equipment e ON e.id = b.equipment_id
		 LEFT JOIN user_profiles u ON u.id = b.renter_id
		 WHERE b.id = $1`,
		sourceID,
	).Scan(&b.ID, &b.EquipmentID, &b.EquipmentName, &b.RenterID, &b.RenterName,
		&b.Status, &b.StartDate, &b.EndDate,
		&b.TotalDays, &b.TotalAmount, &b.PaymentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching booking %s: %w", sourceID, err)
	}

	record := FormatBooking(b)
	return &record, nil
}
