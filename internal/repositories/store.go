package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
	"github.com/or73/Async-API-Pizza-Delivery/internal/metrics"
	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
)

// sensitiveFields are removed from every record returned by ListAll.
var sensitiveFields = []string{"password", "shoppingCartId", "ordersBckp"}

// DB owns a Backend and the record locks shared by every RecordStore built
// from it. Build one per process.
type DB struct {
	backend Backend
	locks   *keyLocks
	claims  *keyLocks
	metrics *metrics.Metrics
}

// NewDB wraps backend. m may be nil.
func NewDB(backend Backend, m *metrics.Metrics) *DB {
	return &DB{
		backend: backend,
		locks:   newKeyLocks(),
		claims:  newKeyLocks(),
		metrics: m,
	}
}

// Store returns the RecordStore of col. It panics on an invalid collection,
// which can only come from a programming error; use Collection for names
// coming from outside.
func (db *DB) Store(col Collection) *RecordStore {
	if !col.Valid() {
		panic(fmt.Sprintf("repositories: invalid collection %d", col))
	}
	return &RecordStore{db: db, col: col}
}

// Collection returns the RecordStore of the collection called name.
func (db *DB) Collection(name string) (*RecordStore, error) {
	col, err := ParseCollection(name)
	if err != nil {
		return nil, err
	}
	return db.Store(col), nil
}

// Close releases the backend.
func (db *DB) Close() error {
	return db.backend.Close()
}

// RecordStore provides single-record CRUD over one collection. Records are
// stored as JSON.
//
// Create, Update, Delete and Modify hold the record's lock for the whole
// check-then-write sequence, so within one process a key is never created
// twice and a Modify never loses a concurrent write. Processes sharing the
// same backend are not coordinated.
type RecordStore struct {
	db  *DB
	col Collection
}

// Collection returns the collection the store serves.
func (s *RecordStore) Collection() Collection { return s.col }

func (s *RecordStore) path(key string) string {
	return s.col.String() + "/" + key
}

func (s *RecordStore) observe(op string, err error) {
	s.db.metrics.ObserveStore(s.col.String(), op, err)
}

// ioError converts an unexpected backend failure into a NotFound error that
// keeps the cause for diagnostics.
func (s *RecordStore) ioError(op, key string, err error) error {
	slog.Error("record store failure", "op", op, "record", s.path(key), "error", err)
	return apperr.Wrap(apperr.NotFound, op, fmt.Sprintf("could not access %s", s.path(key)), err)
}

// Create stores value under key. It fails with AlreadyExists when the key
// is already present.
func (s *RecordStore) Create(ctx context.Context, key string, value any) (err error) {
	const op = "repositories.create"
	defer func() { s.observe("create", err) }()

	data, err := json.Marshal(value)
	if err != nil {
		return apperr.Wrap(apperr.InvalidArgument, op, "could not encode record", err)
	}

	unlock := s.db.locks.lock(s.col, key)
	defer unlock()

	exists, err := s.db.backend.Exists(ctx, s.col, key)
	if err != nil {
		return s.ioError(op, key, err)
	}
	if exists {
		return apperr.Errorf(apperr.AlreadyExists, op, "%s already exists", s.path(key))
	}
	if err := s.db.backend.Put(ctx, s.col, key, data); err != nil {
		return s.ioError(op, key, err)
	}
	return nil
}

// ReadRaw returns the serialized record stored under key.
func (s *RecordStore) ReadRaw(ctx context.Context, key string) (_ json.RawMessage, err error) {
	const op = "repositories.read"
	defer func() { s.observe("read", err) }()

	data, found, err := s.db.backend.Get(ctx, s.col, key)
	if err != nil {
		return nil, s.ioError(op, key, err)
	}
	if !found {
		return nil, apperr.Errorf(apperr.NotFound, op, "%s does not exist", s.path(key))
	}
	return data, nil
}

// Read decodes the record stored under key into out.
func (s *RecordStore) Read(ctx context.Context, key string, out any) error {
	data, err := s.ReadRaw(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Wrap(apperr.Internal, "repositories.read", fmt.Sprintf("corrupt record %s", s.path(key)), err)
	}
	return nil
}

// Exists reports whether a record is stored under key.
func (s *RecordStore) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := s.db.backend.Exists(ctx, s.col, key)
	if err != nil {
		return false, s.ioError("repositories.exists", key, err)
	}
	return exists, nil
}

// Update replaces the record stored under key with value. It fails with
// NotFound when the key is absent.
func (s *RecordStore) Update(ctx context.Context, key string, value any) (err error) {
	const op = "repositories.update"
	defer func() { s.observe("update", err) }()

	data, err := json.Marshal(value)
	if err != nil {
		return apperr.Wrap(apperr.InvalidArgument, op, "could not encode record", err)
	}

	unlock := s.db.locks.lock(s.col, key)
	defer unlock()

	return s.replace(ctx, op, key, data)
}

func (s *RecordStore) replace(ctx context.Context, op, key string, data []byte) error {
	exists, err := s.db.backend.Exists(ctx, s.col, key)
	if err != nil {
		return s.ioError(op, key, err)
	}
	if !exists {
		return apperr.Errorf(apperr.NotFound, op, "%s does not exist", s.path(key))
	}
	if err := s.db.backend.Put(ctx, s.col, key, data); err != nil {
		return s.ioError(op, key, err)
	}
	return nil
}

// Delete removes the record stored under key. It fails with NotFound when
// the key is absent.
func (s *RecordStore) Delete(ctx context.Context, key string) (err error) {
	const op = "repositories.delete"
	defer func() { s.observe("delete", err) }()

	unlock := s.db.locks.lock(s.col, key)
	defer unlock()

	exists, err := s.db.backend.Exists(ctx, s.col, key)
	if err != nil {
		return s.ioError(op, key, err)
	}
	if !exists {
		return apperr.Errorf(apperr.NotFound, op, "%s does not exist", s.path(key))
	}
	if err := s.db.backend.Delete(ctx, s.col, key); err != nil {
		return s.ioError(op, key, err)
	}
	return nil
}

// ListKeys returns the key of every record in the collection, sorted.
func (s *RecordStore) ListKeys(ctx context.Context) (_ []string, err error) {
	defer func() { s.observe("list_keys", err) }()

	keys, err := s.db.backend.Keys(ctx, s.col)
	if err != nil {
		return nil, s.ioError("repositories.list", "", err)
	}
	return keys, nil
}

// ListAll returns every record of the collection as a generic JSON object,
// with the password, cart reference and order history fields removed.
func (s *RecordStore) ListAll(ctx context.Context) ([]map[string]any, error) {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		var record map[string]any
		if err := s.Read(ctx, key, &record); err != nil {
			// removed between listing and reading
			if apperr.Is(err, apperr.NotFound) {
				continue
			}
			return nil, apperr.Annotate(err, "repositories.listAll")
		}
		for _, field := range sensitiveFields {
			delete(record, field)
		}
		records = append(records, record)
	}
	return records, nil
}

// ItemList reads the shopping cart stored under key and returns its items
// and total.
func (s *RecordStore) ItemList(ctx context.Context, key string) (models.CartItems, error) {
	var cart models.ShoppingCart
	if err := s.Read(ctx, key, &cart); err != nil {
		return models.CartItems{}, apperr.Annotate(err, "repositories.itemList")
	}
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return models.CartItems{Items: items, Total: cart.Total}, nil
}

// Exclusive runs fn while holding a claim on key. Claims are separate from
// the record locks, so fn may call any store method on key; concurrent
// Exclusive calls for the same key run one after the other.
func (s *RecordStore) Exclusive(key string, fn func() error) error {
	release := s.db.claims.lock(s.col, key)
	defer release()
	return fn()
}

// Modify reads the record stored under key into a T, applies fn and writes
// the result back, holding the record lock throughout. If fn returns an
// error nothing is written. It returns the value as written.
func Modify[T any](ctx context.Context, s *RecordStore, key string, fn func(*T) error) (T, error) {
	const op = "repositories.modify"
	var value T

	unlock := s.db.locks.lock(s.col, key)
	defer unlock()

	if err := s.Read(ctx, key, &value); err != nil {
		return value, err
	}
	if err := fn(&value); err != nil {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return value, apperr.Wrap(apperr.InvalidArgument, op, "could not encode record", err)
	}
	err = s.replace(ctx, op, key, data)
	s.observe("modify", err)
	return value, err
}
