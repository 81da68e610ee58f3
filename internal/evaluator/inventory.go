package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/availd-io/availd/internal/domain/availability"
)

// InventoryGate matches when an externally resolved inventory level clears a
// configured minimum. It is the only side-effecting predicate: the resolver
// may consult storage or the network, and resolver errors propagate to the
// caller instead of being folded into "unavailable".
//
// Config: min — numeric threshold (string-coerced; negatives clamp to 0).
// A missing resolver, a non-numeric min, or a non-bool/non-numeric resolver
// return all mean non-match.
type InventoryGate struct {
	adapter *resolverAdapter
}

// NewInventoryGate creates an inventory gate backed by the given resolver
// configuration. The per-class resolver memo lives as long as the predicate;
// the registry's cache keeps a single instance across evaluations.
func NewInventoryGate(cfg ResolverConfig) *InventoryGate {
	return &InventoryGate{adapter: newResolverAdapter(cfg)}
}

// Matches implements availability.Predicate.
func (g *InventoryGate) Matches(ctx context.Context, cfg map[string]any, moment time.Time, subject availability.Subject) (bool, error) {
	min, ok := floatValue(cfg["min"])
	if !ok {
		return false, nil
	}
	if min < 0 {
		min = 0
	}

	resolve := g.adapter.resolverFor(subject.Class())
	if resolve == nil {
		return false, nil
	}

	value, err := resolve(ctx, subject, moment, cfg)
	if err != nil {
		return false, fmt.Errorf("inventory resolver for %s: %w", subject.Class(), err)
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	default:
		if n, ok := floatValue(value); ok {
			return n >= min, nil
		}
		return false, nil
	}
}

// SideEffecting marks the gate as the predicate allowed to touch the world.
func (g *InventoryGate) SideEffecting() bool { return true }

var (
	_ availability.Predicate     = (*InventoryGate)(nil)
	_ availability.SideEffecting = (*InventoryGate)(nil)
)
