package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const (
	DefaultNamespace = "cart-storage"

	snapshotVersion       = 0
	defaultStorageTimeout = 2 * time.Second
)

var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

type (
	snapshotEnvelope struct {
		State   snapshotState `json:"state"`
		Version int           `json:"version"`
	}

	snapshotState struct {
		Items      []snapshotItem `json:"items"`
		CouponCode string         `json:"couponCode,omitempty"`
	}

	snapshotItem struct {
		ProductID  string          `json:"productId"`
		Quantity   int             `json:"quantity"`
		PriceCents int64           `json:"priceCents"`
		Product    snapshotProduct `json:"product"`
	}

	snapshotProduct struct {
		Title     string `json:"title"`
		Image     string `json:"image"`
		Slug      string `json:"slug"`
		BrandName string `json:"brandName"`
	}
)

// SnapshotKey returns the storage key of the session's snapshot.
func SnapshotKey(namespace, sessionID string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + ":" + sessionID
}

func EncodeSnapshot(s domain.CartSnapshot) ([]byte, error) {
	const op = "EncodeSnapshot"

	env := snapshotEnvelope{Version: snapshotVersion}
	env.State.CouponCode = s.CouponCode
	env.State.Items = make([]snapshotItem, len(s.Items))
	for i, it := range s.Items {
		env.State.Items[i] = snapshotItem{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			PriceCents: it.PriceCents,
			Product: snapshotProduct{
				Title:     it.Product.Title,
				Image:     it.Product.Image,
				Slug:      it.Product.Slug,
				BrandName: it.Product.BrandName,
			},
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// DecodeSnapshot parses data produced by [EncodeSnapshot].
//
// Snapshots holding duplicate products, quantities outside
// 1..[domain.MaxLineQuantity] or prices outside 0..[domain.MaxPriceCents]
// are rejected with [ErrCorruptSnapshot].
func DecodeSnapshot(data []byte) (domain.CartSnapshot, error) {
	const op = "DecodeSnapshot"

	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.CartSnapshot{}, fmt.Errorf(
			"%s: %w: %w", op, ErrCorruptSnapshot, err,
		)
	}

	seen := make(map[string]struct{}, len(env.State.Items))
	s := domain.CartSnapshot{CouponCode: env.State.CouponCode}
	for _, it := range env.State.Items {
		if it.ProductID == "" || !validQuantity(it.Quantity) || !validPrice(it.PriceCents) {
			return domain.CartSnapshot{}, fmt.Errorf(
				"%s: %w: invalid item %q", op, ErrCorruptSnapshot, it.ProductID,
			)
		}
		if _, ok := seen[it.ProductID]; ok {
			return domain.CartSnapshot{}, fmt.Errorf(
				"%s: %w: duplicate item %q", op, ErrCorruptSnapshot, it.ProductID,
			)
		}
		seen[it.ProductID] = struct{}{}

		s.Items = append(s.Items, domain.CartItem{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			PriceCents: it.PriceCents,
			Product: domain.ProductSnapshot{
				Title:     it.Product.Title,
				Image:     it.Product.Image,
				Slug:      it.Product.Slug,
				BrandName: it.Product.BrandName,
			},
		})
	}
	return s, nil
}

var _ Persister = SnapshotRepository{}

// A SnapshotRepository reads and writes one session's snapshot.
type SnapshotRepository struct {
	storage port.KVStorage
	key     string
	timeout time.Duration
}

func NewSnapshotRepository(
	storage port.KVStorage, key string, timeout time.Duration,
) SnapshotRepository {
	if timeout <= 0 {
		timeout = defaultStorageTimeout
	}
	return SnapshotRepository{storage, key, timeout}
}

func (r SnapshotRepository) Key() string {
	return r.key
}

// Persist writes the snapshot synchronously, logging any failure.
func (r SnapshotRepository) Persist(s domain.CartSnapshot) {
	const op = "SnapshotRepository.Persist"
	log := slog.With("op", op, "key", r.key)

	data, err := EncodeSnapshot(s)
	if err != nil {
		log.Error("failed to encode snapshot", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.storage.Set(ctx, r.key, data); err != nil {
		log.Error("failed to write snapshot", "err", err)
		return
	}
	log.Debug("snapshot is written", "nItems", len(s.Items))
}

func (r SnapshotRepository) Load(ctx context.Context) (domain.CartSnapshot, error) {
	const op = "SnapshotRepository.Load"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.storage.Get(ctx, r.key)
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	s, err := DecodeSnapshot(data)
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Restore is Load degraded to the empty snapshot on any failure.
func (r SnapshotRepository) Restore(ctx context.Context) domain.CartSnapshot {
	const op = "SnapshotRepository.Restore"
	log := slog.With("op", op, "key", r.key)

	s, err := r.Load(ctx)
	if err != nil {
		if !errors.Is(err, port.ErrNotFound) {
			log.Warn("starting from empty cart", "err", err)
		}
		return domain.CartSnapshot{}
	}
	log.Debug("snapshot is restored", "nItems", len(s.Items))
	return s
}

func (r SnapshotRepository) Clear(ctx context.Context) error {
	const op = "SnapshotRepository.Clear"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.storage.Remove(ctx, r.key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Open creates a store rehydrated from the repository and persisting into it.
func Open(ctx context.Context, r SnapshotRepository, opts ...Opt) *Store {
	opts = append(slices.Clone(opts), WithSnapshot(r.Restore(ctx)), WithPersister(r))
	return New(opts...)
}
