package macros

import (
	"net/url"
	"strconv"

	"github.com/prebid/openrtb/v20/openrtb2"
)

const (
	MacroKeyBidID       = "PBS-BIDID"
	MacroKeyAppBundle   = "PBS-APPBUNDLE"
	MacroKeyDomain      = "PBS-DOMAIN"
	MacroKeyPubDomain   = "PBS-PUBDOMAIN"
	MacroKeyPageURL     = "PBS-PAGEURL"
	MacroKeyAccountID   = "PBS-ACCOUNTID"
	MacroKeyLmtTracking = "PBS-LIMITADTRACKING"
	MacroKeyBidder      = "PBS-BIDDER"
	MacroKeyIntegration = "PBS-INTEGRATION"
	MacroKeyTimestamp   = "PBS-TIMESTAMP"
	MacroKeyAuctionID   = "PBS-AUCTIONID"
	MacroKeyChannel     = "PBS-CHANNEL"
	MacroKeyEventType   = "PBS-EVENTTYPE"
	MacroKeyVastEvent   = "PBS-VASTEVENT"
)

var bidLevelKeys = []string{MacroKeyBidID, MacroKeyBidder, MacroKeyVastEvent, MacroKeyEventType}

// RequestContext holds the auction level values which are not part of the bid request.
type RequestContext struct {
	AccountID   string
	Integration string
	Channel     string
	// Timestamp is the auction timestamp in milliseconds.
	Timestamp int64
}

// BidContext holds the values of the bid the macros are resolved for.
type BidContext struct {
	BidID     string
	Bidder    string
	VastEvent string
	EventType string
}

type Provider interface {
	// GetMacro returns the url escaped macro value for the given macro key
	GetMacro(key string) string
	// SetContext sets the bid level macros
	SetContext(ctx BidContext)
}

type macroProvider struct {
	macros map[string]string
}

// NewProvider returns a provider holding the request level macros.
func NewProvider(request *openrtb2.BidRequest, reqCtx RequestContext) Provider {
	macroProvider := &macroProvider{macros: map[string]string{}}
	macroProvider.populateRequestMacros(request, reqCtx)
	return macroProvider
}

func (b *macroProvider) populateRequestMacros(request *openrtb2.BidRequest, reqCtx RequestContext) {
	b.macros[MacroKeyTimestamp] = strconv.FormatInt(reqCtx.Timestamp, 10)
	b.macros[MacroKeyIntegration] = reqCtx.Integration
	b.macros[MacroKeyChannel] = reqCtx.Channel
	b.macros[MacroKeyAccountID] = reqCtx.AccountID

	if request == nil {
		return
	}
	b.macros[MacroKeyAuctionID] = request.ID

	if app := request.App; app != nil {
		b.macros[MacroKeyAppBundle] = app.Bundle
		b.macros[MacroKeyDomain] = app.Domain
		if app.Publisher != nil {
			b.macros[MacroKeyPubDomain] = app.Publisher.Domain
		}
	}
	if site := request.Site; site != nil {
		b.macros[MacroKeyPageURL] = site.Page
		if site.Domain != "" {
			b.macros[MacroKeyDomain] = site.Domain
		}
		if site.Publisher != nil && site.Publisher.Domain != "" {
			b.macros[MacroKeyPubDomain] = site.Publisher.Domain
		}
	}
	if request.Device != nil && request.Device.Lmt != nil {
		b.macros[MacroKeyLmtTracking] = strconv.Itoa(int(*request.Device.Lmt))
	}
}

func (b *macroProvider) GetMacro(key string) string {
	return url.QueryEscape(b.macros[key])
}

func (b *macroProvider) SetContext(ctx BidContext) {
	for _, key := range bidLevelKeys {
		delete(b.macros, key)
	}

	b.macros[MacroKeyBidID] = ctx.BidID
	b.macros[MacroKeyBidder] = ctx.Bidder
	b.macros[MacroKeyVastEvent] = ctx.VastEvent
	b.macros[MacroKeyEventType] = ctx.EventType
}
