package cartstore

import (
	"context"

	"github.com/greensolartech/storefront/internal/cart"
	pkgerrors "github.com/greensolartech/storefront/pkg/errors"
	"github.com/greensolartech/storefront/pkg/logger"
	"github.com/greensolartech/storefront/pkg/metrics"
)

// RecordName is the key segment of the canonical cart record.
const RecordName = "cart"

// LegacyRecordNames are key segments earlier storefront scripts used for the
// same data. They are read once and migrated to the canonical key.
var LegacyRecordNames = []string{"greensolartech_cart", "shoppingCart"}

// Store hands out per-session adapters over a shared backend.
type Store struct {
	kv      KV
	keys    Keyer
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

func NewStore(kv KV, keys Keyer, logg *logger.Logger, m *metrics.CartMetrics) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	if keys == nil {
		keys = Namespace("")
	}
	return &Store{kv: kv, keys: keys, logg: logg, metrics: m}
}

// ForSession binds an adapter to one cart session.
func (s *Store) ForSession(sessionID string) *Adapter {
	legacy := make([]string, 0, len(LegacyRecordNames))
	for _, name := range LegacyRecordNames {
		legacy = append(legacy, s.keys.Key(name, sessionID))
	}
	return &Adapter{
		store:      s,
		key:        s.keys.Key(RecordName, sessionID),
		legacyKeys: legacy,
	}
}

// Adapter loads and saves one session's cart record. It satisfies
// cart.Persister.
type Adapter struct {
	store      *Store
	key        string
	legacyKeys []string
}

// Key returns the canonical storage key.
func (a *Adapter) Key() string {
	return a.key
}

// Load returns the stored items. Missing, unreadable or corrupt records all
// yield an empty list; the condition is logged, never returned.
func (a *Adapter) Load(ctx context.Context) []cart.LineItem {
	ctx = a.store.logg.WithField(ctx, "cart_key", a.key)

	raw, ok, err := a.store.kv.Get(ctx, a.key)
	if err != nil {
		a.fail(ctx, "load", "cart store read failed", err)
		return []cart.LineItem{}
	}
	if !ok {
		return a.migrateLegacy(ctx)
	}
	return a.decode(ctx, raw)
}

// Save writes items under the canonical key. Failures are logged, counted
// and returned as CodePersistence errors that callers may ignore.
func (a *Adapter) Save(ctx context.Context, items []cart.LineItem) error {
	ctx = a.store.logg.WithField(ctx, "cart_key", a.key)

	payload, err := encodeItems(items)
	if err != nil {
		return a.fail(ctx, "save", "encode cart record", err)
	}
	if err := a.store.kv.Set(ctx, a.key, payload); err != nil {
		return a.fail(ctx, "save", "cart store write failed", err)
	}
	return nil
}

// Clear writes an empty list.
func (a *Adapter) Clear(ctx context.Context) error {
	return a.Save(ctx, nil)
}

func (a *Adapter) decode(ctx context.Context, raw string) []cart.LineItem {
	items, dropped, err := decodeItems(raw)
	if err != nil {
		a.store.logg.WarnErr(ctx, "corrupt cart record ignored", err)
		a.store.metrics.IncPersistenceFailure("decode")
		return []cart.LineItem{}
	}
	if dropped > 0 {
		a.store.logg.Warn(a.store.logg.WithField(ctx, "dropped", dropped), "invalid cart entries discarded")
	}
	return items
}

func (a *Adapter) migrateLegacy(ctx context.Context) []cart.LineItem {
	for _, legacyKey := range a.legacyKeys {
		raw, ok, err := a.store.kv.Get(ctx, legacyKey)
		if err != nil || !ok {
			continue
		}

		lctx := a.store.logg.WithField(ctx, "legacy_key", legacyKey)
		items := a.decode(lctx, raw)
		if err := a.Save(ctx, items); err != nil {
			return items
		}
		if err := a.store.kv.Del(ctx, legacyKey); err != nil {
			a.store.logg.WarnErr(lctx, "legacy cart record not removed", err)
		}
		a.store.logg.Info(lctx, "legacy cart record migrated")
		return items
	}
	return []cart.LineItem{}
}

func (a *Adapter) fail(ctx context.Context, op, msg string, err error) error {
	a.store.logg.WarnErr(ctx, msg, err)
	a.store.metrics.IncPersistenceFailure(op)
	return pkgerrors.Persistence(err, msg)
}
