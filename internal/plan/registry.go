// Package plan holds the static subscription plan table and the quota
// ledger that gates resource creation against it.
package plan

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/plans.yaml
var configFiles embed.FS

// Tier is one of a small fixed set of subscription levels.
type Tier string

const (
	TierFree     Tier = "free"
	TierStandard Tier = "standard"
	TierPro      Tier = "pro"
)

// Unlimited marks a limit value that always admits.
const Unlimited = -1

// Limits are the numeric resource limits for one plan tier. The table is
// compiled into the binary so every deployment serves identical limits for
// a given plan name; it is deliberately not environment-driven.
type Limits struct {
	MaxBooks            int  `yaml:"max_books" json:"max_books"`
	MaxSessionsPerMonth int  `yaml:"max_sessions_per_month" json:"max_sessions_per_month"` // Unlimited (-1) = no cap
	MaxSessionMinutes   int  `yaml:"max_session_minutes" json:"max_session_minutes"`
	SessionHistory      bool `yaml:"session_history" json:"session_history"`
}

type planFile struct {
	Plans map[Tier]Limits `yaml:"plans"`
}

// Registry is the loaded plan-limits table.
type Registry struct {
	plans map[Tier]Limits
	mu    sync.RWMutex
}

// NewRegistry loads the embedded plan table.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/plans.yaml")
	if err != nil {
		return nil, fmt.Errorf("read plan config: %w", err)
	}

	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("unmarshal plan config: %w", err)
	}

	for _, tier := range []Tier{TierFree, TierStandard, TierPro} {
		if _, ok := pf.Plans[tier]; !ok {
			return nil, fmt.Errorf("plan config missing tier %q", tier)
		}
	}

	return &Registry{plans: pf.Plans}, nil
}

// Limits returns the limits for a tier. Unknown tiers resolve to the free
// tier, the lowest level of service.
func (r *Registry) Limits(tier Tier) Limits {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limits, ok := r.plans[tier]; ok {
		return limits
	}
	return r.plans[TierFree]
}

// TierFromString normalizes a plan name from an external provider. Unknown
// or empty names map to the free tier.
func TierFromString(s string) Tier {
	switch Tier(s) {
	case TierStandard:
		return TierStandard
	case TierPro:
		return TierPro
	default:
		return TierFree
	}
}
