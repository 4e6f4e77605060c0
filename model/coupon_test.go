package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCouponIsRedeemable(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	t.Run("active coupon inside window", func(t *testing.T) {
		c := Coupon{Code: "OK", DiscountPct: 10, Active: true, ValidFrom: &past, ValidUntil: &future}
		assert.True(t, c.IsRedeemable(now))
	})

	t.Run("inactive coupon", func(t *testing.T) {
		c := Coupon{Code: "OFF", DiscountPct: 10, Active: false}
		assert.False(t, c.IsRedeemable(now))
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := Coupon{Code: "SOON", DiscountPct: 10, Active: true, ValidFrom: &future}
		assert.False(t, c.IsRedeemable(now))
	})

	t.Run("expired", func(t *testing.T) {
		c := Coupon{Code: "LATE", DiscountPct: 10, Active: true, ValidUntil: &past}
		assert.False(t, c.IsRedeemable(now))
	})

	t.Run("no window means always valid while active", func(t *testing.T) {
		c := Coupon{Code: "EVERGREEN", DiscountPct: 10, Active: true}
		assert.True(t, c.IsRedeemable(now))
	})

	t.Run("redemption cap reached", func(t *testing.T) {
		c := Coupon{Code: "FULL", DiscountPct: 10, Active: true, MaxRedemptions: 5, Redemptions: 5}
		assert.False(t, c.IsRedeemable(now))
	})

	t.Run("zero cap means unlimited", func(t *testing.T) {
		c := Coupon{Code: "NOLIMIT", DiscountPct: 10, Active: true, MaxRedemptions: 0, Redemptions: 100000}
		assert.True(t, c.IsRedeemable(now))
	})
}

func TestCouponApply(t *testing.T) {
	c := Coupon{DiscountPct: 20}
	assert.InDelta(t, 120.0, c.Apply(150.0), 0.0001)

	full := Coupon{DiscountPct: 100}
	assert.Equal(t, 0.0, full.Apply(99.99))

	none := Coupon{DiscountPct: 0}
	assert.Equal(t, 250.0, none.Apply(250.0))
}
