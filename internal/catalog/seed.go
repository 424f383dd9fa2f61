package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// SeedOptions controls demo data generation.
type SeedOptions struct {
	Count int
	// Span is how far back from Newest capture times reach.
	Span time.Duration
	// Newest is the latest capture time (default: now).
	Newest time.Time
	// UntimedShare is the fraction of items with no capture time at all.
	UntimedShare float64
	// NestedShare is the fraction of items carrying only the original
	// (EXIF-style) capture time.
	NestedShare float64
	// Seed makes generation deterministic when non-zero.
	Seed uint64
	// BatchSize is the number of records per insert transaction.
	BatchSize int
}

// DefaultSeedOptions returns the options used by `mosaicd seed`.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		Count:        2000,
		Span:         20 * 365 * 24 * time.Hour,
		UntimedShare: 0.05,
		NestedShare:  0.15,
		BatchSize:    500,
	}
}

// Seed inserts generated records and returns how many were stored.
func (c *Catalog) Seed(ctx context.Context, opts SeedOptions) (int, error) {
	if opts.Count <= 0 {
		return 0, nil
	}
	if opts.Span <= 0 {
		return 0, fmt.Errorf("seed span must be positive")
	}
	records := GenerateRecords(opts)

	batch := opts.BatchSize
	if batch <= 0 {
		batch = len(records)
	}
	stored := 0
	for start := 0; start < len(records); start += batch {
		end := min(start+batch, len(records))
		if err := c.Insert(ctx, records[start:end]...); err != nil {
			return stored, err
		}
		stored = end
	}
	c.logger.Info().Int("count", stored).Msg("catalog seeded")
	return stored, nil
}

// GenerateRecords builds demo records with uuid keys. Capture times are
// skewed toward the recent end of the span, like a real photo library.
func GenerateRecords(opts SeedOptions) []Record {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	newest := opts.Newest
	if newest.IsZero() {
		newest = time.Now()
	}
	newest = newest.UTC()

	records := make([]Record, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		age := time.Duration(rng.Float64() * rng.Float64() * float64(opts.Span))
		taken := newest.Add(-age).Truncate(time.Second)
		uploaded := taken.Add(time.Duration(rng.IntN(72)) * time.Hour)

		rec := Record{
			Key:        uuid.New().String(),
			UploadedAt: uploaded,
			ContentRef: uuid.New().String(),
		}
		switch p := rng.Float64(); {
		case p < opts.UntimedShare:
		case p < opts.UntimedShare+opts.NestedShare:
			rec.OriginalTakenAt = taken.Format("2006:01:02 15:04:05")
		default:
			rec.TakenAt = taken.Format(time.RFC3339)
		}
		records = append(records, rec)
	}
	return records
}
