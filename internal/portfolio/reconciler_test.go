package portfolio

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"github.com/vadiminshakov/livefolio/internal/market/prices"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func storeWith(m domain.PriceMap) *prices.Store {
	s := prices.NewStore()
	s.ApplyFull(m)
	return s
}

func TestRecompute_UnrealizedScenario(t *testing.T) {
	view := domain.PortfolioView{Holdings: []domain.Holding{
		{Instrument: "GOOG", Quantity: 10, AverageCost: dec("100")},
	}}

	got := Recompute(view, storeWith(domain.PriceMap{"GOOG": dec("115")}))

	require.Len(t, got.Holdings, 1)
	assert.Equal(t, "150.00", got.Holdings[0].Unrealized.StringFixed(2))
	assert.Equal(t, "115", got.Holdings[0].CurrentPrice.String())
	assert.Equal(t, "150.00", got.Unrealized.StringFixed(2))
	assert.True(t, view.Holdings[0].Unrealized.IsZero(), "input must not be mutated")
}

func TestRecompute_MissingPriceKeepsCurrentPrice(t *testing.T) {
	view := domain.PortfolioView{Holdings: []domain.Holding{
		{Instrument: "GOOG", Quantity: 2, AverageCost: dec("10"), CurrentPrice: dec("12"), Unrealized: dec("4")},
		{Instrument: "TSLA", Quantity: 1, AverageCost: dec("200")},
	}}

	got := Recompute(view, storeWith(domain.PriceMap{"TSLA": dec("210")}))

	assert.Equal(t, "12", got.Holdings[0].CurrentPrice.String())
	assert.Equal(t, "4.00", got.Holdings[0].Unrealized.StringFixed(2))
	assert.Equal(t, "10.00", got.Holdings[1].Unrealized.StringFixed(2))
	assert.Equal(t, "14.00", got.Unrealized.StringFixed(2))
}

func TestRecompute_TotalSumsRoundedHoldings(t *testing.T) {
	// each holding: (0.005 - 0) * 1 = 0.005 -> 0.01; total of rounded values is 0.03,
	// an unrounded sum would give 0.015 -> 0.02
	view := domain.PortfolioView{Holdings: []domain.Holding{
		{Instrument: "A", Quantity: 1},
		{Instrument: "B", Quantity: 1},
		{Instrument: "C", Quantity: 1},
	}}
	p := storeWith(domain.PriceMap{"A": dec("0.005"), "B": dec("0.005"), "C": dec("0.005")})

	got := Recompute(view, p)

	for _, h := range got.Holdings {
		assert.Equal(t, "0.01", h.Unrealized.StringFixed(2))
	}
	assert.Equal(t, "0.03", got.Unrealized.StringFixed(2))
}

func TestRecompute_NegativePnL(t *testing.T) {
	view := domain.PortfolioView{Holdings: []domain.Holding{
		{Instrument: "GOOG", Quantity: 3, AverageCost: dec("100.10")},
	}}

	got := Recompute(view, storeWith(domain.PriceMap{"GOOG": dec("99.95")}))
	assert.Equal(t, "-0.45", got.Unrealized.StringFixed(2))
}

func TestRecompute_Deterministic(t *testing.T) {
	view, err := Normalize([]byte(`{"cash": 5, "holdings": [{"ticker": "GOOG", "qty": 3, "avg_cost": "10.333"}, {"ticker": "TSLA", "qty": 7, "avg_cost": 1}]}`))
	require.NoError(t, err)
	p := storeWith(domain.PriceMap{"GOOG": dec("11.111"), "TSLA": dec("0.999")})

	a, err := json.Marshal(Recompute(view, p))
	require.NoError(t, err)
	b, err := json.Marshal(Recompute(view, p))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestReconciler_PriceTickRepricesLatestSnapshot(t *testing.T) {
	store := prices.NewStore()
	r := NewReconciler()
	assert.False(t, r.HasSnapshot())

	_, err := r.ApplySnapshot([]byte(`{"holdings": [{"ticker": "TSLA", "qty": 2, "avg_cost": 200}, {"ticker": "GOOG", "qty": 1, "avg_cost": 50, "current_price": 60}]}`), store)
	require.NoError(t, err)
	assert.True(t, r.HasSnapshot())

	store.ApplyDelta(domain.PriceMap{"TSLA": dec("250")})
	view := r.Reprice(store)

	tsla, ok := view.Holding("TSLA")
	require.True(t, ok)
	assert.Equal(t, "100.00", tsla.Unrealized.StringFixed(2))
	assert.Equal(t, "110.00", view.Unrealized.StringFixed(2))
}

func TestReconciler_OrderIndependent(t *testing.T) {
	snapshot := []byte(`{"cash": 100, "holdings": [{"ticker": "TSLA", "qty": 2, "avg_cost": 200}, {"ticker": "GOOG", "qty": 4, "avg_cost": 90}]}`)
	initial := domain.PriceMap{"GOOG": dec("95"), "TSLA": dec("190")}
	delta := domain.PriceMap{"TSLA": dec("250")}

	// delta then snapshot
	s1 := storeWith(initial)
	r1 := NewReconciler()
	s1.ApplyDelta(delta)
	r1.Reprice(s1)
	_, err := r1.ApplySnapshot(snapshot, s1)
	require.NoError(t, err)

	// snapshot then delta
	s2 := storeWith(initial)
	r2 := NewReconciler()
	_, err = r2.ApplySnapshot(snapshot, s2)
	require.NoError(t, err)
	s2.ApplyDelta(delta)
	r2.Reprice(s2)

	a, err := json.Marshal(r1.View())
	require.NoError(t, err)
	b, err := json.Marshal(r2.View())
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestReconciler_MalformedSnapshotKeepsView(t *testing.T) {
	store := storeWith(domain.PriceMap{"GOOG": dec("10")})
	r := NewReconciler()
	_, err := r.ApplySnapshot([]byte(`{"cash": 7, "holdings": {"GOOG": 1}}`), store)
	require.NoError(t, err)

	view, err := r.ApplySnapshot([]byte(`"nope"`), store)
	assert.ErrorIs(t, err, ErrMalformedSnapshot)
	assert.Equal(t, "7", view.Cash.String())
	require.Len(t, view.Holdings, 1)
	assert.Equal(t, "10", view.Holdings[0].CurrentPrice.String())
}

func TestReconciler_ViewIsCopy(t *testing.T) {
	r := NewReconciler()
	_, err := r.ApplySnapshot([]byte(`{"holdings": {"GOOG": 1}}`), prices.NewStore())
	require.NoError(t, err)

	v := r.View()
	v.Holdings[0].Quantity = 99
	assert.Equal(t, int64(1), r.View().Holdings[0].Quantity)
}
