package bot

import (
	"testing"

	"github.com/shopspring/decimal"

	"bracket/internal/exchange"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRiskCalculator_MarginUsed(t *testing.T) {
	calc := NewRiskCalculator()

	t.Run("isolated uses isolated wallet", func(t *testing.T) {
		p := exchange.Position{
			MarginType:     "isolated",
			IsolatedWallet: d("1250.12345"),
			Quantity:       d("0.5"),
			EntryPrice:     d("25000"),
			Leverage:       d("10"),
		}
		margin := calc.MarginUsed(p, d("9999"))
		if !margin.Equal(d("1250.1235")) {
			t.Errorf("margin = %s, want 1250.1235 (isolatedWallet rounded)", margin)
		}
	})

	t.Run("cross prefers initial margin", func(t *testing.T) {
		p := exchange.Position{MarginType: "cross", Quantity: d("0.5"), EntryPrice: d("25000"), Leverage: d("10")}
		margin := calc.MarginUsed(p, d("1300"))
		if !margin.Equal(d("1300")) {
			t.Errorf("margin = %s, want 1300", margin)
		}
	})

	t.Run("cross fallback to notional over leverage", func(t *testing.T) {
		p := exchange.Position{MarginType: "cross", Quantity: d("-0.5"), EntryPrice: d("25000"), Leverage: d("10")}
		margin := calc.MarginUsed(p, decimal.Zero)
		// abs(-0.5) * 25000 / 10 = 1250
		if !margin.Equal(d("1250")) {
			t.Errorf("margin = %s, want 1250", margin)
		}
	})

	t.Run("zero leverage does not divide by zero", func(t *testing.T) {
		p := exchange.Position{MarginType: "cross", Quantity: d("1"), EntryPrice: d("100"), Leverage: decimal.Zero}
		margin := calc.MarginUsed(p, decimal.Zero)
		if !margin.Equal(d("100")) {
			t.Errorf("margin = %s, want 100 (leverage treated as 1)", margin)
		}
	})
}

func TestRiskCalculator_LiquidationPriceEstimate(t *testing.T) {
	calc := NewRiskCalculator()

	t.Run("exchange value is authoritative", func(t *testing.T) {
		p := exchange.Position{
			Quantity:         d("0.5"),
			EntryPrice:       d("25000"),
			LiquidationPrice: d("20123.456"),
			Leverage:         d("10"),
		}
		liq, approx := calc.LiquidationPriceEstimate(p)
		if approx {
			t.Error("exchange-reported price should not be approximate")
		}
		if !liq.Equal(d("20123.46")) {
			t.Errorf("liq = %s, want 20123.46", liq)
		}
	})

	t.Run("long approximation", func(t *testing.T) {
		p := exchange.Position{Quantity: d("0.5"), EntryPrice: d("25000"), Leverage: d("10")}
		liq, approx := calc.LiquidationPriceEstimate(p)
		if !approx {
			t.Error("computed estimate should be flagged approximate")
		}
		// 25000 * (1 - 0.1 + 0.004) = 22600
		if !liq.Equal(d("22600")) {
			t.Errorf("liq = %s, want 22600", liq)
		}
	})

	t.Run("short approximation", func(t *testing.T) {
		p := exchange.Position{Quantity: d("-0.5"), EntryPrice: d("25000"), Leverage: d("10")}
		liq, _ := calc.LiquidationPriceEstimate(p)
		// 25000 * (1 + 0.1 - 0.004) = 27400
		if !liq.Equal(d("27400")) {
			t.Errorf("liq = %s, want 27400", liq)
		}
	})

	t.Run("negative estimate clamped to zero", func(t *testing.T) {
		// Плечо 1 и формула лонга: 100 * (1 - 1 + 0.004) = 0.4, не отрицательно;
		// отрицательный случай недостижим при lev >= 1, но clamp защищает
		// от мусорного leverage < 1
		p := exchange.Position{Quantity: d("1"), EntryPrice: d("100"), Leverage: d("0.5")}
		liq, _ := calc.LiquidationPriceEstimate(p)
		if liq.Sign() < 0 {
			t.Errorf("liq = %s, must not be negative", liq)
		}
	})

	t.Run("scale follows entry price precision", func(t *testing.T) {
		p := exchange.Position{Quantity: d("100"), EntryPrice: d("0.06431"), Leverage: d("5")}
		liq, _ := calc.LiquidationPriceEstimate(p)
		// 0.06431 * (1 - 0.2 + 0.004) = 0.0517 (5 знаков цены входа)
		if !liq.Equal(d("0.05171")) {
			t.Errorf("liq = %s, want 0.05171", liq)
		}
	})
}

func TestRiskCalculator_ROE(t *testing.T) {
	calc := NewRiskCalculator()

	t.Run("zero margin yields zero", func(t *testing.T) {
		roe := calc.ROE(d("100"), decimal.Zero)
		if !roe.IsZero() {
			t.Errorf("roe = %s, want 0", roe)
		}
	})

	t.Run("profit", func(t *testing.T) {
		roe := calc.ROE(d("50"), d("1250"))
		if !roe.Equal(d("4")) {
			t.Errorf("roe = %s, want 4", roe)
		}
	})

	t.Run("loss rounded to two places", func(t *testing.T) {
		roe := calc.ROE(d("-33.333"), d("1000"))
		if !roe.Equal(d("-3.33")) {
			t.Errorf("roe = %s, want -3.33", roe)
		}
	})
}

func TestRiskCalculator_Metrics(t *testing.T) {
	calc := NewRiskCalculator()

	p := exchange.Position{
		Symbol:         "BTCUSDT",
		MarginType:     "isolated",
		IsolatedWallet: d("1250"),
		Quantity:       d("0.5"),
		EntryPrice:     d("25000"),
		Leverage:       d("10"),
		UnrealizedPnL:  d("50"),
	}

	m := calc.Metrics(p, decimal.Zero)
	if !m.MarginUsed.Equal(d("1250")) {
		t.Errorf("MarginUsed = %s", m.MarginUsed)
	}
	if !m.ROE.Equal(d("4")) {
		t.Errorf("ROE = %s, want 4", m.ROE)
	}
	if !m.Approximate {
		t.Error("liquidation should be approximate without exchange value")
	}
}
