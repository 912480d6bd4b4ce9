package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefinitions() []Definition {
	return []Definition{
		{Plan: Free, Name: "Free", Credits: 1000},
		{Plan: Pro, Name: "Pro", PriceID: "price_pro", Credits: 10000},
		{Plan: Enterprise, Name: "Enterprise", PriceID: "price_ent", Credits: 50000},
	}
}

func TestResolve(t *testing.T) {
	catalog, err := NewStaticCatalog(testDefinitions())
	require.NoError(t, err)

	assert.Equal(t, int64(1000), catalog.Resolve(Free).Int64())
	assert.Equal(t, int64(10000), catalog.Resolve(Pro).Int64())
	assert.Equal(t, int64(50000), catalog.Resolve(Enterprise).Int64())

	// Unknown plans fall back to the free tier.
	assert.Equal(t, int64(1000), catalog.Resolve(Plan("legacy")).Int64())
}

func TestPlanForPrice(t *testing.T) {
	catalog, err := NewStaticCatalog(testDefinitions())
	require.NoError(t, err)

	p, ok := catalog.PlanForPrice("price_pro")
	require.True(t, ok)
	assert.Equal(t, Pro, p)

	_, ok = catalog.PlanForPrice("price_unknown")
	assert.False(t, ok)

	_, ok = catalog.PlanForPrice("")
	assert.False(t, ok)
}

func TestPriceForPlan(t *testing.T) {
	catalog, err := NewStaticCatalog(testDefinitions())
	require.NoError(t, err)

	price, ok := catalog.PriceForPlan(Enterprise)
	require.True(t, ok)
	assert.Equal(t, "price_ent", price)

	// The free tier carries no price and cannot be checked out.
	_, ok = catalog.PriceForPlan(Free)
	assert.False(t, ok)
}

func TestStaticCatalogValidation(t *testing.T) {
	_, err := NewStaticCatalog(nil)
	assert.Error(t, err)

	_, err = NewStaticCatalog([]Definition{{Plan: Pro, Credits: 10}})
	assert.Error(t, err, "free tier is mandatory")

	_, err = NewStaticCatalog([]Definition{
		{Plan: Free, Credits: 10},
		{Plan: Free, Credits: 20},
	})
	assert.Error(t, err, "duplicate tiers rejected")
}

func TestParse(t *testing.T) {
	assert.Equal(t, Pro, Parse("pro"))
	assert.Equal(t, Pro, Parse(" PRO "))
	assert.Equal(t, Enterprise, Parse("enterprise"))
	assert.Equal(t, Free, Parse("free"))
	assert.Equal(t, Free, Parse("unknown"))
	assert.Equal(t, Free, Parse(""))
}

func TestLimitUnlimited(t *testing.T) {
	assert.True(t, Limit(UnlimitedCredits).Unlimited())
	assert.False(t, Limit(0).Unlimited())
	assert.False(t, Limit(1000).Unlimited())
}
