package cmd

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	celpred "github.com/availd-io/availd/internal/adapter/outbound/cel"
	"github.com/availd-io/availd/internal/adapter/outbound/memory"
	"github.com/availd-io/availd/internal/adapter/outbound/sqlite"
	"github.com/availd-io/availd/internal/adapter/outbound/state"
	"github.com/availd-io/availd/internal/config"
	"github.com/availd-io/availd/internal/domain/availability"
	"github.com/availd-io/availd/internal/evaluator"
	"github.com/availd-io/availd/internal/registry"
	"github.com/availd-io/availd/internal/service"
)

// openStore builds the rule store selected by the config.
// The returned closer is a no-op for stores without resources.
func openStore(cfg *config.Config, logger *slog.Logger) (availability.RuleStore, func() error, error) {
	switch cfg.Store.Driver {
	case "memory":
		return memory.NewRuleStore(), func() error { return nil }, nil
	case "file":
		return state.NewFileRuleStore(cfg.Store.Path, logger), func() error { return nil }, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.Store.Path, cfg.Table)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildEngine wires the registry, installs the configured rule types, and
// constructs the availability service.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*service.AvailabilityService, error) {
	factory := &evaluator.Factory{
		Inventory: inventoryResolverConfig(cfg),
	}
	reg := registry.New(factory)

	if len(cfg.RuleTypes) == 0 {
		evaluator.InstallBuiltins(reg)
	} else {
		for name, def := range cfg.RuleTypes {
			reg.Register(name, def)
		}
	}

	// The CEL extension predicate is always available under "cel" unless
	// the host's rule_types claimed that name.
	if reg.Get("cel") == nil {
		pred, err := celpred.NewPredicate()
		if err != nil {
			return nil, fmt.Errorf("build cel predicate: %w", err)
		}
		reg.Register("cel", pred)
	}

	metrics := service.NewMetrics(prometheus.DefaultRegisterer)
	return service.NewAvailabilityService(reg, logger, service.WithMetrics(metrics)), nil
}

// inventoryResolverConfig translates the declarative inventory_gate config
// block into the adapter's resolver configuration. Named constructors come
// from the host constructor table; this binary ships none, so names in the
// config only resolve when a host links its own.
func inventoryResolverConfig(cfg *config.Config) evaluator.ResolverConfig {
	rc := evaluator.ResolverConfig{}
	if cfg.InventoryGate.Resolver != "" {
		rc.Resolver = cfg.InventoryGate.Resolver
	}
	if len(cfg.InventoryGate.Resolvers) > 0 {
		rc.Resolvers = make(map[string]any, len(cfg.InventoryGate.Resolvers))
		for class, def := range cfg.InventoryGate.Resolvers {
			rc.Resolvers[class] = def
		}
	}
	return rc
}

// defaultEffect parses the configured fallback effect, defaulting to deny.
func defaultEffect(cfg *config.Config) availability.Effect {
	effect, err := availability.ParseEffect(cfg.DefaultEffect)
	if err != nil {
		return availability.EffectDeny
	}
	return effect
}
