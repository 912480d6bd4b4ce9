// Package plan maps subscription tiers to credit limits and features.
package plan

import "strings"

type Plan string

const (
	Free       Plan = "free"
	Pro        Plan = "pro"
	Enterprise Plan = "enterprise"
)

// UnlimitedCredits is the stored sentinel for plans without a credit cap.
// It is the wire/storage representation only; callers interpret it through
// Limit.Unlimited, never through arithmetic.
const UnlimitedCredits int64 = -1

// Limit is a per-period credit ceiling.
type Limit int64

func (l Limit) Unlimited() bool {
	return int64(l) == UnlimitedCredits
}

func (l Limit) Int64() int64 {
	return int64(l)
}

// Parse normalizes a stored plan value. Unknown values resolve to Free.
func Parse(raw string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(raw))) {
	case Pro:
		return Pro
	case Enterprise:
		return Enterprise
	default:
		return Free
	}
}

// Definition describes one subscription tier.
type Definition struct {
	Plan     Plan     `mapstructure:"plan"`
	Name     string   `mapstructure:"name"`
	PriceID  string   `mapstructure:"price_id"`
	Credits  int64    `mapstructure:"credits"`
	Features []string `mapstructure:"features"`
}
