package utils

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Reference prefixes for ledger records.
const (
	PrefixOrder    = "ORD"
	PrefixPurchase = "TXN"
	PrefixAPI      = "API-TXN"
	PrefixDeposit  = "DEP"
	PrefixRefund   = "REF"
	PrefixAfA      = "AFA"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewReference returns a globally unique, time ordered reference such as
// "ORD-01J9Z3M8W6YH2T3K5V7X9Z1B3D".
func NewReference(prefix string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	return prefix + "-" + id.String()
}

// RefundReference derives the single refund reference allowed for an order.
func RefundReference(orderReference string) string {
	return PrefixRefund + "-" + orderReference
}

// MaskSecret keeps only the last four characters of s visible.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("•", len(s))
	}
	return strings.Repeat("•", 8) + s[len(s)-4:]
}
