package openrtb_ext

import (
	"strings"
)

// BidderName refers to a bidder code or a seat. It is used as the key of the per-bidder maps
// in bidresponse.ext (errors, warnings, responsetimemillis, debug.httpcalls).
type BidderName string

// Names reserved for the engine itself. No bidder may use them as a seat or alias.
const (
	BidderReservedCache     BidderName = "cache"     // Reserved for the prebid cache call
	BidderReservedPrebid    BidderName = "prebid"    // Reserved for errors raised by the engine
	BidderReservedTargeting BidderName = "targeting" // Reserved for targeting key validation warnings
)

func (name BidderName) String() string {
	return string(name)
}

// IsReservedBidderName reports whether name collides with one of the reserved keys.
func IsReservedBidderName(name string) bool {
	switch BidderName(strings.ToLower(name)) {
	case BidderReservedCache, BidderReservedPrebid, BidderReservedTargeting:
		return true
	}
	return false
}

// BidderList returns the names of all bidders present in a per-bidder map, in no particular order.
func BidderList[V any](m map[BidderName]V) []BidderName {
	names := make([]BidderName, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}
