package exchange

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/tidwall/gjson"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/hooks/hookexecution"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/ortb"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
	"github.com/prebid/prebid-response-engine/util/ptrutil"
)

const defaultCurrency = "USD"

// maxTruncateAttrChars bounds the truncateattrchars settings. Values outside 0..255 are ignored.
const maxTruncateAttrChars = 255

// AuctionRequest holds everything the response assembly needs besides the bidder responses.
type AuctionRequest struct {
	BidRequest *openrtb2.BidRequest
	// ResolvedBidRequest is returned as ext.debug.resolvedrequest. The bid request is used when empty.
	ResolvedBidRequest json.RawMessage
	Account            config.Account
	StartTime          time.Time
	HookExecutor       hookexecution.StageExecutor
	// Errors raised before the response assembly. They are returned under "prebid".
	Errors []error
	// Warnings raised before the response assembly. They are returned under "prebid" in debug mode.
	Warnings []error
	// DebugHttpCalls are the http calls made before the response assembly, returned in debug mode.
	DebugHttpCalls map[openrtb_ext.BidderName][]*openrtb_ext.ExtHttpCall
}

// auctionContext is the parsed, read only view of the auction shared by all stages.
type auctionContext struct {
	request      *openrtb2.BidRequest
	requestExt   *openrtb_ext.ExtRequestPrebid
	targeting    *openrtb_ext.ExtRequestTargeting
	account      *config.Account
	imps         map[string]*openrtb2.Imp
	currency     string
	debug        bool
	keyPrefix    string
	truncateAttr int
	errors       []error
	warnings     []error
}

func newAuctionContext(cfg *config.Configuration, r *AuctionRequest) *auctionContext {
	ac := &auctionContext{
		request:  r.BidRequest,
		account:  &r.Account,
		imps:     make(map[string]*openrtb2.Imp, len(r.BidRequest.Imp)),
		currency: defaultCurrency,
		errors:   append([]error(nil), r.Errors...),
		warnings: append([]error(nil), r.Warnings...),
	}

	for i := range r.BidRequest.Imp {
		ac.imps[r.BidRequest.Imp[i].ID] = &r.BidRequest.Imp[i]
	}
	if len(r.BidRequest.Cur) > 0 {
		ac.currency = r.BidRequest.Cur[0]
	}

	requestExt := &openrtb_ext.ExtRequest{}
	if len(r.BidRequest.Ext) > 0 {
		if err := jsonutil.Unmarshal(r.BidRequest.Ext, requestExt); err != nil {
			ac.errors = append(ac.errors, &errortypes.BadInput{Message: fmt.Sprintf("request.ext is invalid: %s", err.Error())})
			requestExt = &openrtb_ext.ExtRequest{}
		}
	}
	ac.requestExt = &requestExt.Prebid
	ac.targeting, _ = ortb.SetDefaultsTargeting(ac.requestExt.Targeting)

	ac.debug = cfg.Auction.DebugAllowed && (ac.requestExt.Debug || r.BidRequest.Test == 1)

	ac.truncateAttr = resolveTruncateAttrChars(ac.targeting, ac.account, cfg.Auction.TruncateTargetAttr)
	ac.keyPrefix = ac.resolveKeyPrefix()
	return ac
}

// resolveTruncateAttrChars returns the first valid value of the request, account and host settings.
func resolveTruncateAttrChars(targeting *openrtb_ext.ExtRequestTargeting, account *config.Account, hostValue int) int {
	var requestValue *int
	if targeting != nil {
		requestValue = targeting.TruncateAttrChars
	}
	value := ptrutil.FirstNonNil(
		validTruncateAttrChars(requestValue),
		validTruncateAttrChars(account.Auction.TruncateTargetAttr),
		validTruncateAttrChars(&hostValue),
	)
	return ptrutil.ValueOrDefault(value)
}

func validTruncateAttrChars(value *int) *int {
	if value == nil || *value < 0 || *value > maxTruncateAttrChars {
		return nil
	}
	return value
}

// resolveKeyPrefix returns the targeting key prefix. A prefix too long for the truncation limit is
// replaced by the default one and a warning is returned under "targeting".
func (ac *auctionContext) resolveKeyPrefix() string {
	var prefix string
	if ac.targeting != nil {
		prefix = ac.targeting.Prefix
	}
	if prefix == "" {
		prefix = ac.account.Auction.Targeting.Prefix
	}
	if prefix == "" {
		return openrtb_ext.DefaultTargetingPrefix
	}

	if ac.truncateAttr > 0 && len(prefix)+openrtb_ext.MaxKeyLength > ac.truncateAttr {
		ac.warnings = append(ac.warnings, &prefixWarning{&errortypes.BadInput{
			Message: fmt.Sprintf("Key prefix value is dropped to default. Decrease custom prefix length or increase truncateattrchars by %d",
				len(prefix)+openrtb_ext.MaxKeyLength-ac.truncateAttr),
		}})
		return openrtb_ext.DefaultTargetingPrefix
	}
	return prefix
}

// prefixWarning marks the key prefix warning, returned under "targeting" instead of "prebid".
type prefixWarning struct {
	*errortypes.BadInput
}

func (ac *auctionContext) imp(impID string) (*openrtb2.Imp, error) {
	if imp, ok := ac.imps[impID]; ok {
		return imp, nil
	}
	return nil, &errortypes.InvariantViolation{Message: fmt.Sprintf("Bid with impId %s doesn't have matched imp", impID)}
}

// impExt parses imp.ext. A malformed ext reads as empty.
func (ac *auctionContext) impExt(imp *openrtb2.Imp) openrtb_ext.ExtImp {
	var ext openrtb_ext.ExtImp
	if len(imp.Ext) > 0 {
		jsonutil.Unmarshal(imp.Ext, &ext)
	}
	return ext
}

func (ac *auctionContext) impPassthrough(imp *openrtb2.Imp) json.RawMessage {
	result := gjson.GetBytes(imp.Ext, "prebid.passthrough")
	if !result.Exists() {
		return nil
	}
	return json.RawMessage(result.Raw)
}

// targetingEnv returns the value of the env targeting key, empty for web requests.
func (ac *auctionContext) targetingEnv() string {
	if ac.requestExt.Amp != nil {
		return openrtb_ext.EnvAmpValue
	}
	if ac.request.App != nil {
		return openrtb_ext.EnvAppValue
	}
	return ""
}

func (ac *auctionContext) cacheSettings() *openrtb_ext.ExtRequestPrebidCache {
	return ac.requestExt.Cache
}

func (ac *auctionContext) preferDeals() bool {
	return ac.targeting != nil && ac.targeting.PreferDeals
}

func (ac *auctionContext) auctionTimestamp(now time.Time) int64 {
	if ac.requestExt.AuctionTimestamp != 0 {
		return ac.requestExt.AuctionTimestamp
	}
	return now.UnixMilli()
}

// paaFormat returns the protected audience format: request, then account, then original.
func (ac *auctionContext) paaFormat() openrtb_ext.PaaFormat {
	if f := openrtb_ext.PaaFormat(strings.ToLower(string(ac.requestExt.PaaFormat))); f.IsValid() {
		return f
	}
	if f := ac.account.Auction.PaaFormat; f.IsValid() {
		return f
	}
	return openrtb_ext.PaaFormatOriginal
}
