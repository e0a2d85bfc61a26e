package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prebid/openrtb/v20/openrtb3"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/logger"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
	"github.com/prebid/prebid-response-engine/util/ptrutil"
)

// assemblyInput is everything the response assembly reads besides the auction context.
type assemblyInput struct {
	seats            []*SeatResponse
	cache            cacheOutcome
	paa              paaOutput
	prebidErrors     []error
	prebidWarnings   []error
	auctionTimestamp int64
	seatNonBids      *openrtb_ext.SeatNonBidBuilder
	debugHttpCalls   map[openrtb_ext.BidderName][]*openrtb_ext.ExtHttpCall
	resolvedRequest  json.RawMessage
}

// responseAssembler builds the bid response out of the ranked and cached seats.
type responseAssembler struct {
	cfg                 *config.Configuration
	ac                  *auctionContext
	targetData          *targetData
	rankingEnabled      bool
	returnCreativeBids  bool
	returnCreativeVideo bool
	logger              logger.Logger
}

func newResponseAssembler(cfg *config.Configuration, ac *auctionContext, td *targetData, l logger.Logger) *responseAssembler {
	ra := &responseAssembler{
		cfg:                 cfg,
		ac:                  ac,
		logger:              l,
		targetData:          td,
		rankingEnabled:      ac.account.Auction.Ranking.Enabled,
		returnCreativeBids:  true,
		returnCreativeVideo: true,
	}
	if settings := ac.cacheSettings(); settings != nil {
		if settings.Bids != nil {
			ra.returnCreativeBids = ptrutil.ValueOrDefault(ptrutil.FirstNonNil(settings.Bids.ReturnCreative, ptrutil.ToPtr(true)))
		}
		if settings.VastXML != nil {
			ra.returnCreativeVideo = ptrutil.ValueOrDefault(ptrutil.FirstNonNil(settings.VastXML.ReturnCreative, ptrutil.ToPtr(true)))
		}
	}
	return ra
}

// assemble returns the bid response. Seats without bids only contribute their diagnostics.
func (ra *responseAssembler) assemble(in assemblyInput) *openrtb2.BidResponse {
	seatErrors := make(map[openrtb_ext.BidderName][]error)
	seatBids := make([]openrtb2.SeatBid, 0, len(in.seats))
	for _, seat := range in.seats {
		if len(seat.Bids) == 0 {
			continue
		}
		bids, errs := ra.makeBids(seat, in.seatNonBids)
		if len(errs) > 0 {
			seatErrors[openrtb_ext.BidderName(seat.Seat)] = append(seatErrors[openrtb_ext.BidderName(seat.Seat)], errs...)
		}
		if len(bids) == 0 {
			continue
		}
		seatBids = append(seatBids, openrtb2.SeatBid{Seat: seat.Seat, Bid: bids, Group: 0})
	}

	response := &openrtb2.BidResponse{
		ID:      ra.ac.request.ID,
		Cur:     ra.ac.currency,
		SeatBid: seatBids,
	}
	response.Ext = ra.makeExt(in, seatErrors)
	return response
}

// assembleEmpty returns the response of an auction without bids.
func (ra *responseAssembler) assembleEmpty(in assemblyInput) *openrtb2.BidResponse {
	response := &openrtb2.BidResponse{
		ID:      ra.ac.request.ID,
		Cur:     ra.ac.currency,
		NBR:     ptrutil.ToPtr(openrtb3.NoBidUnknownError),
		SeatBid: []openrtb2.SeatBid{},
	}
	response.Ext = ra.makeExt(in, nil)
	return response
}

func (ra *responseAssembler) makeBids(seat *SeatResponse, seatNonBids *openrtb_ext.SeatNonBidBuilder) ([]openrtb2.Bid, []error) {
	var errs []error
	bids := make([]openrtb2.Bid, 0, len(seat.Bids))
	for _, record := range seat.Bids {
		bid, err := ra.makeBid(record)
		if err != nil {
			errs = append(errs, err)
			seatNonBids.AddBid(openrtb_ext.NewNonBid(openrtb_ext.NonBidParams{
				Bid:            record.Bid,
				NonBidReason:   openrtb_ext.ResponseRejectedInvalidCreative,
				OriginalBidCPM: record.OriginalBidCPM,
				OriginalBidCur: record.OriginalBidCur,
			}), seat.Seat)
			continue
		}
		bids = append(bids, *bid)
	}
	return bids, errs
}

func (ra *responseAssembler) makeBid(record *BidRecord) (*openrtb2.Bid, error) {
	bid := *record.Bid

	var cacheID, videoCacheID string
	if record.Cache != nil {
		cacheID, videoCacheID = record.Cache.CacheID, record.Cache.VideoCacheID
	}
	if (videoCacheID != "" && !ra.returnCreativeVideo) || (cacheID != "" && !ra.returnCreativeBids) {
		bid.AdM = ""
	}

	if record.BidType == openrtb_ext.BidTypeNative && bid.AdM != "" {
		adm, err := addNativeTypes(&bid, record.Imp)
		if err != nil {
			return nil, err
		}
		bid.AdM = adm
	}

	ext, err := ra.makeBidExt(record, cacheID, videoCacheID)
	if err != nil {
		return nil, err
	}
	bid.Ext = ext
	setExp(&bid, exposedTTL(record))
	return &bid, nil
}

// makeBidExt adds the auction outcome to ext.prebid of the enriched bid.
func (ra *responseAssembler) makeBidExt(record *BidRecord, cacheID, videoCacheID string) (json.RawMessage, error) {
	ext := []byte(`{}`)
	if len(record.Bid.Ext) > 0 {
		ext = append([]byte(nil), record.Bid.Ext...)
	}

	var err error
	set := func(path string, value interface{}) {
		if err != nil {
			return
		}
		var raw []byte
		if raw, err = jsonutil.Marshal(value); err == nil {
			ext, err = sjson.SetRawBytes(ext, "prebid."+path, raw)
		}
	}

	if targets := ra.targetData.makePrebidTargets(record); len(targets) > 0 {
		set("targeting", targets)
	}
	if record.Targeting != nil && record.Targeting.AddTargetBidderCode {
		set("targetbiddercode", record.Targeting.BidderCode)
	}
	if record.PrioritySatisfied {
		set("dealtiersatisfied", true)
	}
	if cacheID != "" || videoCacheID != "" {
		set("cache", openrtb_ext.ExtBidPrebidCache{
			Bids:    cachedAssetURL(cacheID, ra.cfg.GetCachedAssetURL),
			VastXML: cachedAssetURL(videoCacheID, ra.cfg.GetCachedAssetURL),
		})
	}
	if passthrough := ra.ac.impPassthrough(record.Imp); len(passthrough) > 0 {
		set("passthrough", passthrough)
	}
	if ra.rankingEnabled {
		set("rank", record.Rank)
	}
	if err != nil {
		return nil, &errortypes.FailedToMarshal{Message: fmt.Sprintf("Bid %s of seat %s: %v", record.Bid.ID, record.Seat, err)}
	}
	return ext, nil
}

func (ra *responseAssembler) makeExt(in assemblyInput, seatErrors map[openrtb_ext.BidderName][]error) json.RawMessage {
	ext := &openrtb_ext.ExtBidResponse{
		Errors:               make(map[openrtb_ext.BidderName][]openrtb_ext.ExtBidderMessage),
		Warnings:             make(map[openrtb_ext.BidderName][]openrtb_ext.ExtBidderMessage),
		ResponseTimeMillis:   make(map[openrtb_ext.BidderName]int),
		RequestTimeoutMillis: ra.ac.request.TMax,
		Igi:                  in.paa.igi,
		Prebid: &openrtb_ext.ExtResponsePrebid{
			AuctionTimestamp: in.auctionTimestamp,
			Passthrough:      ra.ac.requestExt.Passthrough,
			Fledge:           in.paa.fledge,
		},
	}

	for _, seat := range in.seats {
		name := openrtb_ext.BidderName(seat.Seat)
		errs := append(append([]error(nil), seat.Errors...), seatErrors[name]...)
		delete(seatErrors, name)
		addMessages(ext.Errors, name, errortypes.FatalOnly(errs))
		addMessages(ext.Warnings, name, append(append([]error(nil), seat.Warnings...), errortypes.WarningOnly(errs)...))
		if seat.Seat == seat.Bidder.String() && seat.ResponseTimeMillis > ext.ResponseTimeMillis[name] {
			ext.ResponseTimeMillis[name] = seat.ResponseTimeMillis
		}
	}

	addMessages(ext.Errors, openrtb_ext.BidderReservedPrebid, in.prebidErrors)
	for name, err := range ra.deprecatedBidderErrors() {
		addMessages(ext.Errors, name, []error{err})
	}
	if in.cache.err != nil {
		addMessages(ext.Errors, openrtb_ext.BidderReservedCache, []error{in.cache.err})
	}
	if in.cache.httpCall != nil || in.cache.err != nil {
		ext.ResponseTimeMillis[openrtb_ext.BidderReservedCache] = in.cache.responseTimeMs
	}

	var targetingWarnings, prebidWarnings []error
	for _, warning := range in.prebidWarnings {
		if _, ok := warning.(*prefixWarning); ok {
			targetingWarnings = append(targetingWarnings, warning)
			continue
		}
		if errortypes.ReadScope(warning) == errortypes.ScopeDebug && !ra.ac.debug {
			continue
		}
		prebidWarnings = append(prebidWarnings, warning)
	}
	addMessages(ext.Warnings, openrtb_ext.BidderReservedPrebid, prebidWarnings)
	addMessages(ext.Warnings, openrtb_ext.BidderReservedTargeting, targetingWarnings)

	if ra.ac.debug {
		ext.Debug = ra.makeDebug(in)
	}
	if ra.ac.requestExt.ReturnAllBidStatus && in.seatNonBids != nil {
		ext.Prebid.SeatNonBid = in.seatNonBids.Get()
	}

	if len(ext.Errors) == 0 {
		ext.Errors = nil
	}
	if len(ext.Warnings) == 0 {
		ext.Warnings = nil
	}
	if len(ext.ResponseTimeMillis) == 0 {
		ext.ResponseTimeMillis = nil
	}

	raw, err := jsonutil.Marshal(ext)
	if err != nil {
		ra.logger.Errorf("Failed to marshal ext of response %s: %v", ra.ac.request.ID, err)
		return nil
	}
	return raw
}

func (ra *responseAssembler) makeDebug(in assemblyInput) *openrtb_ext.ExtResponseDebug {
	debug := &openrtb_ext.ExtResponseDebug{
		HttpCalls:       make(map[openrtb_ext.BidderName][]*openrtb_ext.ExtHttpCall),
		ResolvedRequest: in.resolvedRequest,
	}
	for bidder, calls := range in.debugHttpCalls {
		debug.HttpCalls[bidder] = append(debug.HttpCalls[bidder], calls...)
	}
	for _, seat := range in.seats {
		if len(seat.HttpCalls) > 0 {
			name := openrtb_ext.BidderName(seat.Seat)
			debug.HttpCalls[name] = append(debug.HttpCalls[name], seat.HttpCalls...)
		}
	}
	if in.cache.httpCall != nil {
		debug.HttpCalls[openrtb_ext.BidderReservedCache] = []*openrtb_ext.ExtHttpCall{in.cache.httpCall}
	}
	if len(debug.HttpCalls) == 0 {
		debug.HttpCalls = nil
	}
	if len(debug.ResolvedRequest) == 0 {
		if raw, err := jsonutil.Marshal(ra.ac.request); err == nil {
			debug.ResolvedRequest = raw
		}
	}
	return debug
}

// deprecatedBidderErrors returns an error for every deprecated bidder name used in imp.ext.prebid.bidder,
// keyed by that name.
func (ra *responseAssembler) deprecatedBidderErrors() map[openrtb_ext.BidderName]error {
	if len(ra.cfg.DeprecatedBidders) == 0 {
		return nil
	}
	errs := make(map[openrtb_ext.BidderName]error)
	for i := range ra.ac.request.Imp {
		gjson.GetBytes(ra.ac.request.Imp[i].Ext, "prebid.bidder").ForEach(func(key, _ gjson.Result) bool {
			name := key.String()
			if message, deprecated := ra.cfg.DeprecatedBidders[name]; deprecated {
				errs[openrtb_ext.BidderName(name)] = &errortypes.BadInput{Message: message}
			}
			return true
		})
	}
	return errs
}

func addMessages(messages map[openrtb_ext.BidderName][]openrtb_ext.ExtBidderMessage, name openrtb_ext.BidderName, errs []error) {
	for _, err := range errs {
		messages[name] = append(messages[name], openrtb_ext.ExtBidderMessage{
			Code:    errortypes.ReadCode(err),
			Message: err.Error(),
		})
	}
}
