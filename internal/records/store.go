// Package records persists completed bookings and cancellations as JSON
// array files, matching the layout consumed by the clinic's back office.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Lakshya-akoode/my-cn-bot/internal/booking"
	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

// Store implements booking.Sink over two append-only JSON files. Each write
// reads the whole collection, appends, and writes it back; a per-file mutex
// serializes writers so concurrent records cannot overwrite each other.
type Store struct {
	bookings      *jsonFile[booking.BookingRecord]
	cancellations *jsonFile[booking.CancellationRecord]
	observer      RecordObserver
}

// RecordObserver counts saved records, labelled by kind.
type RecordObserver interface {
	ObserveRecord(kind string)
}

// NewStore creates a sink writing bookings and cancellations to the given
// file paths. Parent directories are created on first write. observer may be
// nil.
func NewStore(bookingsPath, cancellationsPath string, logger *logging.Logger, observer RecordObserver) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		bookings:      &jsonFile[booking.BookingRecord]{path: bookingsPath, logger: logger},
		cancellations: &jsonFile[booking.CancellationRecord]{path: cancellationsPath, logger: logger},
		observer:      observer,
	}
}

var _ booking.Sink = (*Store)(nil)

// SaveBooking appends a confirmed booking.
func (s *Store) SaveBooking(ctx context.Context, rec booking.BookingRecord) error {
	if err := s.bookings.append(ctx, rec); err != nil {
		return err
	}
	if s.observer != nil {
		s.observer.ObserveRecord("booking")
	}
	return nil
}

// SaveCancellation appends a cancellation with its reason.
func (s *Store) SaveCancellation(ctx context.Context, rec booking.CancellationRecord) error {
	if err := s.cancellations.append(ctx, rec); err != nil {
		return err
	}
	if s.observer != nil {
		s.observer.ObserveRecord("cancellation")
	}
	return nil
}

// Bookings returns all persisted bookings. Used by tests and tooling.
func (s *Store) Bookings() ([]booking.BookingRecord, error) {
	return s.bookings.readAll()
}

// Cancellations returns all persisted cancellations.
func (s *Store) Cancellations() ([]booking.CancellationRecord, error) {
	return s.cancellations.readAll()
}

type jsonFile[T any] struct {
	mu     sync.Mutex
	path   string
	logger *logging.Logger
}

func (f *jsonFile[T]) append(ctx context.Context, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	collection := f.load()
	collection = append(collection, rec)

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("records: create %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(collection, "", "    ")
	if err != nil {
		return fmt.Errorf("records: marshal %s: %w", f.path, err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("records: write %s: %w", f.path, err)
	}
	return nil
}

// load reads the existing collection. A missing file is an empty collection;
// an unreadable or corrupt file is treated the same way, which discards the
// prior contents on the next write, so it is logged as data loss.
func (f *jsonFile[T]) load() []T {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Error("records: existing file unreadable, starting a new collection",
				"path", f.path, "error", err)
		}
		return nil
	}

	var collection []T
	if err := json.Unmarshal(data, &collection); err != nil {
		f.logger.Error("records: existing file corrupt, prior records will be discarded",
			"path", f.path, "error", err)
		return nil
	}
	return collection
}

func (f *jsonFile[T]) readAll() ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("records: read %s: %w", f.path, err)
	}
	var collection []T
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("records: decode %s: %w", f.path, err)
	}
	return collection, nil
}
