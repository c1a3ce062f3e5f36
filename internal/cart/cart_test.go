package cart

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, price(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestCart_AddItemTwiceIncrementsSingleLine(t *testing.T) {
	c := New()
	item := Item{ID: "cap", Name: "Cappuccino", UnitPrice: price("150.00")}

	c.AddItem(item)
	c.AddItem(item)

	lines := c.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, 2, lines[0].Quantity)
	require.Equal(t, "Cappuccino", lines[0].Name)
}

func TestCart_SetQuantity(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		wantLen int
	}{
		{name: "zero removes", qty: 0, wantLen: 0},
		{name: "negative removes", qty: -1, wantLen: 0},
		{name: "positive sets", qty: 3, wantLen: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			c.AddItem(Item{ID: "cap", UnitPrice: price("150")})

			c.SetQuantity("cap", tc.qty)

			require.Equal(t, tc.wantLen, c.Len())
			if tc.wantLen == 1 {
				require.Equal(t, tc.qty, c.Lines()[0].Quantity)
			}
		})
	}
}

func TestCart_SetQuantityOnAbsentItemIsNoop(t *testing.T) {
	c := New()
	c.SetQuantity("missing", 3)
	require.Zero(t, c.Len())
}

func TestCart_RemoveItemKeepsOrder(t *testing.T) {
	c := New()
	c.AddItem(Item{ID: "a", UnitPrice: price("1")})
	c.AddItem(Item{ID: "b", UnitPrice: price("2")})
	c.AddItem(Item{ID: "c", UnitPrice: price("3")})

	c.RemoveItem("b")
	c.RemoveItem("missing")
	c.AddItem(Item{ID: "c", UnitPrice: price("3")})

	lines := c.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, "a", lines[0].ItemID)
	require.Equal(t, "c", lines[1].ItemID)
	require.Equal(t, 2, lines[1].Quantity)
}

func TestCart_ClearIsIdempotent(t *testing.T) {
	c := New()
	c.AddItem(Item{ID: "a", UnitPrice: price("1")})
	c.Clear()
	c.Clear()

	require.Zero(t, c.Len())
	totals := c.ComputeTotals()
	requireAmount(t, "0", totals.Subtotal)
	requireAmount(t, "0", totals.Tax)
	requireAmount(t, "0", totals.Total)
}

func TestCart_ComputeTotalsCheckoutScenario(t *testing.T) {
	c := New()
	cappuccino := Item{ID: "cap", Name: "Cappuccino", UnitPrice: price("150.00")}
	c.AddItem(cappuccino)
	c.AddItem(cappuccino)
	c.AddItem(Item{ID: "cro", Name: "Croissant", UnitPrice: price("90.00")})

	totals := c.ComputeTotals()

	requireAmount(t, "390.00", totals.Subtotal)
	requireAmount(t, "19.50", totals.Tax)
	requireAmount(t, "409.50", totals.Total)
}

func TestCart_ComputeTotalsNoFloatDrift(t *testing.T) {
	c := New()
	for i := 0; i < 1000; i++ {
		c.AddItem(Item{ID: "penny", UnitPrice: price("0.10")})
	}

	totals := c.ComputeTotals()
	requireAmount(t, "100.00", totals.Subtotal)
	requireAmount(t, "5.00", totals.Tax)
	requireAmount(t, "105.00", totals.Total)
}

func TestCart_TotalsFollowLineSetAfterRandomMutations(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	items := []Item{
		{ID: "espresso", UnitPrice: price("120.00")},
		{ID: "latte", UnitPrice: price("180.50")},
		{ID: "muffin", UnitPrice: price("75.25")},
		{ID: "water", UnitPrice: price("0.00")},
	}

	c := New()
	for step := 0; step < 500; step++ {
		item := items[rnd.Intn(len(items))]
		switch rnd.Intn(3) {
		case 0:
			c.AddItem(item)
		case 1:
			c.SetQuantity(item.ID, rnd.Intn(6)-1)
		case 2:
			c.RemoveItem(item.ID)
		}

		want := decimal.Zero
		for _, l := range c.Lines() {
			require.GreaterOrEqual(t, l.Quantity, 1)
			want = want.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		totals := c.ComputeTotals()
		require.True(t, want.Equal(totals.Subtotal), "step %d", step)
		require.True(t, totals.Subtotal.Mul(TaxRate).Round(2).Equal(totals.Tax), "step %d", step)
		require.True(t, totals.Subtotal.Add(totals.Tax).Equal(totals.Total), "step %d", step)
	}
}

func TestCart_CheckoutClears(t *testing.T) {
	c := New()
	c.AddItem(Item{ID: "cap", UnitPrice: price("150.00")})

	lines, totals := c.Checkout()

	require.Len(t, lines, 1)
	requireAmount(t, "157.50", totals.Total)
	require.Zero(t, c.Len())
}

func TestFromLinesMergesAndDropsEmpty(t *testing.T) {
	c := FromLines([]Line{
		{ItemID: "a", UnitPrice: price("10"), Quantity: 1},
		{ItemID: "b", UnitPrice: price("5"), Quantity: 0},
		{ItemID: "a", UnitPrice: price("10"), Quantity: 2},
	})

	lines := c.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, 3, lines[0].Quantity)
}
