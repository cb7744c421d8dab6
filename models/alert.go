package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AlertCondition is the direction a price alert watches.
type AlertCondition string

const (
	ConditionAbove AlertCondition = "above"
	ConditionBelow AlertCondition = "below"
)

// Valid reports whether the condition is a recognized value.
func (c AlertCondition) Valid() bool {
	return c == ConditionAbove || c == ConditionBelow
}

// PriceAlert is a standing instruction to notify a user once a symbol
// crosses a target price. IsActive flips to false exactly once, at the
// moment the alert triggers, and never back.
type PriceAlert struct {
	Symbol      string          `json:"symbol" bson:"symbol"`
	TargetPrice decimal.Decimal `json:"target_price" bson:"target_price"`
	Condition   AlertCondition  `json:"condition" bson:"condition"`
	UserID      string          `json:"user_id" bson:"user_id"`
	IsActive    bool            `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
}

// Matches reports whether price satisfies the alert condition. A price
// exactly equal to the target satisfies both "above" and "below".
func (a *PriceAlert) Matches(price decimal.Decimal) bool {
	switch a.Condition {
	case ConditionAbove:
		return price.GreaterThanOrEqual(a.TargetPrice)
	case ConditionBelow:
		return price.LessThanOrEqual(a.TargetPrice)
	}
	return false
}

// Validate checks the fields a caller must supply.
func (a *PriceAlert) Validate() error {
	if a.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if a.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if !a.Condition.Valid() {
		return fmt.Errorf("condition must be %q or %q", ConditionAbove, ConditionBelow)
	}
	if !a.TargetPrice.IsPositive() {
		return fmt.Errorf("target_price must be positive")
	}
	return nil
}
