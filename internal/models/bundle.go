package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BundleType string

const (
	BundleMTNUp2U         BundleType = "mtnup2u"
	BundleMTNFibre        BundleType = "mtn-fibre"
	BundleMTNJustForU     BundleType = "mtn-justforu"
	BundleATIShare        BundleType = "AT-ishare"
	BundleTelecel5959     BundleType = "Telecel-5959"
	BundleAfARegistration BundleType = "AfA-registration"
	BundleOther           BundleType = "other"
)

var bundleTypes = map[BundleType]struct{}{
	BundleMTNUp2U:         {},
	BundleMTNFibre:        {},
	BundleMTNJustForU:     {},
	BundleATIShare:        {},
	BundleTelecel5959:     {},
	BundleAfARegistration: {},
	BundleOther:           {},
}

func (t BundleType) Valid() bool {
	_, ok := bundleTypes[t]
	return ok
}

// RequiresDelivery reports whether orders of this type are fulfilled by a
// live provider call before the order may be committed.
func (t BundleType) RequiresDelivery() bool {
	return t == BundleATIShare
}

type Bundle struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	Type      BundleType      `gorm:"type:varchar(32);not null;uniqueIndex:idx_bundle_type_capacity" json:"type"`
	Capacity  int             `gorm:"not null;uniqueIndex:idx_bundle_type_capacity" json:"capacity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Name      string          `json:"name"`
	IsActive  bool            `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
