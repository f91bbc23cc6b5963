package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Family names a payment-provider family. Each family has its own cache
// table and its own invoice-creation flow.
type Family string

const (
	FamilySquare      Family = "square"
	FamilySquarespace Family = "squarespace"
)

func ParseFamily(value string) (Family, error) {
	switch Family(strings.ToLower(strings.TrimSpace(value))) {
	case FamilySquare:
		return FamilySquare, nil
	case FamilySquarespace:
		return FamilySquarespace, nil
	default:
		return "", ErrInvalidFamily
	}
}

// Table is the cache table holding this family's invoices.
func (f Family) Table() string {
	switch f {
	case FamilySquare:
		return "square_invoices"
	case FamilySquarespace:
		return "squarespace_orders"
	default:
		return ""
	}
}

func (f Family) String() string { return string(f) }

// Families lists every family in lookup order.
func Families() []Family {
	return []Family{FamilySquare, FamilySquarespace}
}

// CachedInvoice is a provider invoice or order mirrored locally. Amount is a
// two-decimal string.
type CachedInvoice struct {
	ID               snowflake.ID
	OwnerID          snowflake.ID
	ExternalID       string
	CustomerEmail    string
	Amount           string
	LineItemsSummary string
	RawJSON          datatypes.JSON `gorm:"column:raw_json"`
	SyncedAt         time.Time
}
