package billing

import (
	"errors"
	"fmt"
)

// UpgradeBonusCredits is granted once per upgrade action, in the synchronous
// checkout path only. Webhook plan-change events never grant credit, which is
// what makes the bonus single-shot.
const UpgradeBonusCredits = 200

// PlanSpec describes one tier: its provider price id, monthly price in the
// smallest currency unit, and the credits granted per paid order.
type PlanSpec struct {
	Name         Plan
	PriceID      string
	MonthlyPrice int64
	OrderCredits int64
	Rank         int
}

// Catalog maps between plan names and provider price ids. It is built once
// at startup from configuration and never mutated.
type Catalog struct {
	byName  map[Plan]PlanSpec
	byPrice map[string]Plan
}

// NewCatalog validates the configured price ids and builds the static
// free < pro < ultra catalog. Missing price ids are a startup error, not a
// per-request one.
func NewCatalog(cfg Config) (*Catalog, error) {
	if cfg.ProPriceID == "" || cfg.UltraPriceID == "" {
		return nil, errors.New("billing: plan price ids are not configured")
	}
	if cfg.ProPriceID == cfg.UltraPriceID {
		return nil, fmt.Errorf("billing: pro and ultra share price id %s", cfg.ProPriceID)
	}

	specs := []PlanSpec{
		{Name: PlanFree, MonthlyPrice: 0, OrderCredits: 0, Rank: 0},
		{Name: PlanPro, PriceID: cfg.ProPriceID, MonthlyPrice: 2000, OrderCredits: 100, Rank: 1},
		{Name: PlanUltra, PriceID: cfg.UltraPriceID, MonthlyPrice: 4500, OrderCredits: 300, Rank: 2},
	}

	c := &Catalog{
		byName:  make(map[Plan]PlanSpec, len(specs)),
		byPrice: make(map[string]Plan, len(specs)),
	}
	for _, spec := range specs {
		c.byName[spec.Name] = spec
		if spec.PriceID != "" {
			c.byPrice[spec.PriceID] = spec.Name
		}
	}
	return c, nil
}

// ByName resolves a plan by its public name ("pro", "ultra").
func (c *Catalog) ByName(name string) (PlanSpec, bool) {
	spec, ok := c.byName[Plan(name)]
	return spec, ok
}

// ByPriceID resolves a plan from a provider price id. Unknown ids report
// false; the provider may bill products unrelated to this system.
func (c *Catalog) ByPriceID(priceID string) (PlanSpec, bool) {
	name, ok := c.byPrice[priceID]
	if !ok {
		return PlanSpec{}, false
	}
	return c.byName[name], true
}

// Free returns the free tier spec.
func (c *Catalog) Free() PlanSpec {
	return c.byName[PlanFree]
}
