package exchange

import (
	"github.com/gofrs/uuid"
)

// minBidIDLength is the shortest adapter bid id kept when random bid ids are enforced.
const minBidIDLength = 17

// BidIDGenerator creates the server side ids placed in bid.ext.prebid.bidid.
type BidIDGenerator interface {
	New(bidder string) (string, error)
	Enabled() bool
}

type bidIDGenerator struct {
	enabled bool
}

// NewBidIDGenerator returns a generator of random UUIDs. A disabled generator is still used to
// enforce random bid ids.
func NewBidIDGenerator(enabled bool) BidIDGenerator {
	return &bidIDGenerator{enabled: enabled}
}

func (big *bidIDGenerator) Enabled() bool {
	return big.enabled
}

func (big *bidIDGenerator) New(bidder string) (string, error) {
	rawUuid, err := uuid.NewV4()
	return rawUuid.String(), err
}

// enforceBidID replaces ids shorter than minBidIDLength by a fresh random id.
func enforceBidID(generator BidIDGenerator, bidID, bidder string, enforce bool) (string, error) {
	if !enforce || len(bidID) >= minBidIDLength {
		return bidID, nil
	}
	return generator.New(bidder)
}
