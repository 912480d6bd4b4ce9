package plan

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/tollgate/internal/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Catalog resolves plans to limits and payment-processor price IDs to plans.
type Catalog struct {
	current atomic.Value // holds []Definition
}

func defaultDefinitions(cfg config.Config) []Definition {
	return []Definition{
		{
			Plan:    Free,
			Name:    "Free",
			Credits: 1000,
			Features: []string{
				"1,000 credits/month",
				"Basic AI features",
				"Community support",
			},
		},
		{
			Plan:    Pro,
			Name:    "Pro",
			PriceID: cfg.StripePriceIDPro,
			Credits: 10000,
			Features: []string{
				"10,000 credits/month",
				"Advanced AI features",
				"Priority support",
				"Custom workflows",
			},
		},
		{
			Plan:    Enterprise,
			Name:    "Enterprise",
			PriceID: cfg.StripePriceIDEnterprise,
			Credits: 50000,
			Features: []string{
				"50,000 credits/month",
				"All AI features",
				"Dedicated support",
				"Custom integrations",
				"SLA guarantee",
			},
		},
	}
}

// NewCatalog builds the plan catalog from defaults, optionally overridden by
// a plans.yml file which is watched and hot-reloaded.
func NewCatalog(cfg config.Config, logger *zap.Logger) (*Catalog, error) {
	log := logger.Named("plan.catalog")
	catalog := &Catalog{}
	catalog.current.Store(defaultDefinitions(cfg))

	v := viper.New()
	v.SetConfigName("plans")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/tollgate")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		return catalog, nil
	}

	defs, err := unmarshalDefinitions(v)
	if err != nil {
		return nil, err
	}
	catalog.current.Store(defs)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalDefinitions(v)
		if err != nil {
			log.Warn("plan catalog reload failed", zap.Error(err))
			return
		}
		catalog.current.Store(updated)
		log.Info("plan catalog reloaded", zap.String("file", e.Name))
	})

	return catalog, nil
}

// NewStaticCatalog builds a catalog from fixed definitions. Used by tests and
// deployments that do not carry a plans.yml.
func NewStaticCatalog(defs []Definition) (*Catalog, error) {
	if err := validateDefinitions(defs); err != nil {
		return nil, err
	}
	catalog := &Catalog{}
	catalog.current.Store(defs)
	return catalog, nil
}

func unmarshalDefinitions(v *viper.Viper) ([]Definition, error) {
	var defs []Definition
	if err := v.UnmarshalKey("plans", &defs); err != nil {
		return nil, err
	}
	if err := validateDefinitions(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func validateDefinitions(defs []Definition) error {
	if len(defs) == 0 {
		return errors.New("plan catalog cannot be empty")
	}
	seen := map[Plan]bool{}
	for _, def := range defs {
		p := Parse(string(def.Plan))
		if seen[p] {
			return errors.New("plan catalog has duplicate tiers")
		}
		seen[p] = true
		if def.Credits == 0 {
			return errors.New("plan catalog tier has zero credits")
		}
	}
	if !seen[Free] {
		return errors.New("plan catalog must define the free tier")
	}
	return nil
}

func (c *Catalog) definitions() []Definition {
	return c.current.Load().([]Definition)
}

// Resolve returns the canonical credit limit for a plan. An unknown plan
// resolves to the free tier's limit.
func (c *Catalog) Resolve(p Plan) Limit {
	var free Limit
	for _, def := range c.definitions() {
		if def.Plan == p {
			return Limit(def.Credits)
		}
		if def.Plan == Free {
			free = Limit(def.Credits)
		}
	}
	return free
}

// PlanForPrice maps a payment-processor price ID to a plan.
func (c *Catalog) PlanForPrice(priceID string) (Plan, bool) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return Free, false
	}
	for _, def := range c.definitions() {
		if def.PriceID != "" && def.PriceID == priceID {
			return def.Plan, true
		}
	}
	return Free, false
}

// PriceForPlan is the inverse mapping, used by checkout.
func (c *Catalog) PriceForPlan(p Plan) (string, bool) {
	for _, def := range c.definitions() {
		if def.Plan == p && def.PriceID != "" {
			return def.PriceID, true
		}
	}
	return "", false
}

// Definitions returns the current catalog snapshot.
func (c *Catalog) Definitions() []Definition {
	return c.definitions()
}
