package models

import "time"

// ConditionType is the kind of predicate a classification rule encodes.
type ConditionType string

const (
	ConditionDescriptionContains ConditionType = "DESCRIPTION_CONTAINS"
	ConditionDescriptionExact    ConditionType = "DESCRIPTION_EXACT"
	ConditionAmountEquals        ConditionType = "AMOUNT_EQUALS"
	ConditionAmountGreaterThan   ConditionType = "AMOUNT_GREATER_THAN"
	ConditionAmountLessThan      ConditionType = "AMOUNT_LESS_THAN"
)

// Valid reports whether t is one of the five known condition kinds.
// Unknown kinds are rejected when rules are created or edited; if one
// still reaches the evaluator it is treated as never-matching.
func (t ConditionType) Valid() bool {
	switch t {
	case ConditionDescriptionContains, ConditionDescriptionExact,
		ConditionAmountEquals, ConditionAmountGreaterThan, ConditionAmountLessThan:
		return true
	}
	return false
}

// Rule priority is ascending ID: the first active rule whose condition
// matches a transaction wins.
type Rule struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           string `gorm:"index"`
	Name             string
	ConditionType    ConditionType
	ConditionValue   string
	ActionCategoryID *uint
	IsActive         bool `gorm:"index"`
	CreatedAt        time.Time
}
