package exchange

import (
	"fmt"
	"time"

	jsonpatch "gopkg.in/evanphx/json-patch.v5"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/events"
	"github.com/prebid/prebid-response-engine/macros"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
)

// eventTracking has configuration fields needed for adding event tracking to an auction response
type eventTracking struct {
	accountID          string
	enabledForAccount  bool
	enabledForRequest  bool
	auctionTimestampMs int64
	integrationType    string
	channel            string
	externalURL        string
	eventConfig        config.Event
	vastModifier       *events.VASTModifier
}

// getEventTracking creates an eventTracking object from the different configuration sources
func getEventTracking(ac *auctionContext, ts time.Time, cfg *config.Configuration) *eventTracking {
	var channel string
	if ac.requestExt.Channel != nil {
		channel = ac.requestExt.Channel.Name
	}
	return &eventTracking{
		accountID:          ac.account.ID,
		enabledForAccount:  ac.account.Auction.Events.Enabled,
		enabledForRequest:  ac.account.Analytics.EventsEnabledForChannel(channel) || ac.requestExt.Events != nil,
		auctionTimestampMs: ac.auctionTimestamp(ts),
		integrationType:    ac.requestExt.Integration,
		channel:            channel,
		externalURL:        cfg.ExternalURL,
		eventConfig:        cfg.Event,
		vastModifier:       events.NewVASTModifier(cfg.ExternalURL, cfg.Event.VASTEvents),
	}
}

// isEventAllowed checks if events are enabled on both the account and the request level
func (ev *eventTracking) isEventAllowed() bool {
	return ev.enabledForAccount && ev.enabledForRequest
}

// isModifyingVASTXMLAllowed returns true if the bidder may have its VAST XML rewritten for event tracking
func (ev *eventTracking) isModifyingVASTXMLAllowed(bidderName string) bool {
	return ev.isEventAllowed() && ev.eventConfig.ModifiesVAST(bidderName)
}

func (ev *eventTracking) macroProvider(request *openrtb2.BidRequest) macros.Provider {
	return macros.NewProvider(request, macros.RequestContext{
		AccountID:   ev.accountID,
		Integration: ev.integrationType,
		Channel:     ev.channel,
		Timestamp:   ev.auctionTimestampMs,
	})
}

// modifyBidVAST returns the VAST of a video bid with the impression tracker injected. The bid is not
// modified. A nurl only bid is first wrapped into a VAST document.
func (ev *eventTracking) modifyBidVAST(bid *openrtb2.Bid, bidID string, bidderName openrtb_ext.BidderName, provider macros.Provider) (string, error) {
	if len(bid.AdM) == 0 && len(bid.NURL) == 0 {
		return bid.AdM, nil
	}
	vastXML := events.MakeVAST(bid)
	request := &events.EventRequest{
		Type:        events.Imp,
		BidID:       bidID,
		AccountID:   ev.accountID,
		Bidder:      bidderName.String(),
		Timestamp:   ev.auctionTimestampMs,
		Integration: ev.integrationType,
	}
	if newVastXML, ok := ev.vastModifier.Modify(vastXML, request, provider); ok {
		return newVastXML, nil
	}
	return bid.AdM, &errortypes.DebugWarning{
		WarningCode: errortypes.VastModificationWarningCode,
		Message:     fmt.Sprintf("VAST of bid %s from bidder %s could not be modified to add the impression event", bidID, bidderName),
	}
}

// modifyBidJSON injects "wurl" (win) event url if needed, otherwise returns original json
func (ev *eventTracking) modifyBidJSON(record *BidRecord, jsonBytes []byte) ([]byte, error) {
	if !ev.isEventAllowed() || record.BidType == openrtb_ext.BidTypeVideo {
		return jsonBytes, nil
	}
	winEventURL := ev.makeEventURL(events.Win, record.effectiveBidID(), record.Bidder)
	// wurl attribute is not in the schema, so we have to patch
	patch, err := jsonutil.Marshal(map[string]string{"wurl": winEventURL})
	if err != nil {
		return jsonBytes, err
	}
	modifiedJSON, err := jsonpatch.MergePatch(jsonBytes, patch)
	if err != nil {
		return jsonBytes, err
	}
	return modifiedJSON, nil
}

// makeBidExtEvents make the data for bid.ext.prebid.events if needed, otherwise returns nil.
// Video bids carry the impression tracker in their VAST instead.
func (ev *eventTracking) makeBidExtEvents(bidID string, bidType openrtb_ext.BidType, bidderName openrtb_ext.BidderName) *openrtb_ext.ExtBidPrebidEvents {
	if !ev.isEventAllowed() || bidType == openrtb_ext.BidTypeVideo {
		return nil
	}
	return &openrtb_ext.ExtBidPrebidEvents{
		Win: ev.makeEventURL(events.Win, bidID, bidderName),
		Imp: ev.makeEventURL(events.Imp, bidID, bidderName),
	}
}

// makeEventURL returns an event url for the requested type (win or imp)
func (ev *eventTracking) makeEventURL(evType events.EventType, bidID string, bidderName openrtb_ext.BidderName) string {
	return events.EventRequestToUrl(ev.externalURL,
		&events.EventRequest{
			Type:        evType,
			BidID:       bidID,
			Bidder:      string(bidderName),
			AccountID:   ev.accountID,
			Timestamp:   ev.auctionTimestampMs,
			Integration: ev.integrationType,
		})
}
