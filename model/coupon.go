package model

import (
	"time"

	"gorm.io/gorm"
)

// Coupon represents a percent discount applied at checkout
type Coupon struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Code           string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	DiscountPct    float64        `gorm:"not null" json:"discount_pct"` // 0-100
	Active         bool           `gorm:"default:true" json:"active"`
	ValidFrom      *time.Time     `json:"valid_from,omitempty"`
	ValidUntil     *time.Time     `json:"valid_until,omitempty"`
	MaxRedemptions int            `gorm:"default:0" json:"max_redemptions"` // 0 = unlimited
	Redemptions    int            `gorm:"default:0" json:"redemptions"`
}

// TableName specifies the table name for Coupon
func (Coupon) TableName() string {
	return "coupons"
}

// IsRedeemable reports whether the coupon can be applied at the given time
func (c *Coupon) IsRedeemable(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	if c.MaxRedemptions > 0 && c.Redemptions >= c.MaxRedemptions {
		return false
	}
	return true
}

// Apply returns the amount after the percent discount
func (c *Coupon) Apply(amount float64) float64 {
	discounted := amount * (1 - c.DiscountPct/100)
	if discounted < 0 {
		return 0
	}
	return discounted
}
