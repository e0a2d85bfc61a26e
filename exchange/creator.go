package exchange

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/currency"
	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/hooks/hookexecution"
	"github.com/prebid/prebid-response-engine/logger"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/prebid_cache_client"
	"github.com/prebid/prebid-response-engine/stored_requests"
)

// BidResponseCreator merges the bidder responses of an auction into one ranked, targeted and cached
// bid response. It is safe for concurrent use, every call of Create works on its own copies.
type BidResponseCreator struct {
	cfg            *config.Configuration
	categoryMapper CategoryMapper
	bidCacher      BidCacher
	cacheClient    prebid_cache_client.Client
	storedFetcher  stored_requests.Fetcher
	conversions    currency.Conversions
	idGenerator    BidIDGenerator
	clock          clock.Clock
	metrics        metrics.MetricsEngine
	logger         logger.Logger
}

// NewBidResponseCreator wires the creator. bidCacher may be nil, a prebid cache backed one is then
// built on cacheClient.
func NewBidResponseCreator(
	cfg *config.Configuration,
	categoryMapper CategoryMapper,
	cacheClient prebid_cache_client.Client,
	bidCacher BidCacher,
	storedFetcher stored_requests.Fetcher,
	conversions currency.Conversions,
	metricsEngine metrics.MetricsEngine,
) *BidResponseCreator {
	if bidCacher == nil && cacheClient != nil {
		bidCacher = NewBidCacher(cacheClient)
	}
	return &BidResponseCreator{
		cfg:            cfg,
		categoryMapper: categoryMapper,
		bidCacher:      bidCacher,
		cacheClient:    cacheClient,
		storedFetcher:  storedFetcher,
		conversions:    conversions,
		idGenerator:    NewBidIDGenerator(cfg.Auction.GenerateBidID),
		clock:          clock.New(),
		metrics:        metricsEngine,
		logger:         logger.NewSampledLogger(nil, cfg.LogSamplingRate, nil),
	}
}

// Create builds the bid response. Bidder and collaborator failures are reported in the response ext,
// only an invariant violation (a bid for an unknown imp) returns an error.
func (c *BidResponseCreator) Create(ctx context.Context, r *AuctionRequest, responses []*entities.BidderResponse) (*openrtb2.BidResponse, error) {
	start := c.clock.Now()
	ac := newAuctionContext(c.cfg, r)
	labels := metrics.AuctionLabels{Status: metrics.ResponseStatusOK, AccountID: ac.account.ID}
	defer func() {
		c.metrics.RecordAuctionResponse(labels)
		c.metrics.RecordResponseBuildTime(labels, c.clock.Since(start))
	}()

	var executor hookexecution.StageExecutor = hookexecution.EmptyHookExecutor{}
	if r.HookExecutor != nil {
		executor = r.HookExecutor
	}
	seatNonBids := &openrtb_ext.SeatNonBidBuilder{}
	ev := getEventTracking(ac, start, c.cfg)

	storedAttrs, storedErrs := fetchStoredVideoAttributes(ctx, c.storedFetcher, ac)
	enricher := &bidEnricher{
		ac:               ac,
		idGenerator:      c.idGenerator,
		enforceRandomID:  c.cfg.Auction.EnforceRandomBidID,
		eventTracking:    ev,
		storedVideoAttrs: storedAttrs,
		conversions:      currency.GetAuctionCurrencyRates(c.conversions, ac.requestExt.CurrencyConversions),
		metrics:          c.metrics,
	}

	var enrichWarnings []error
	enriched := make([]*entities.BidderResponse, 0, len(responses))
	for _, result := range enricher.enrichBidderResponses(ctx, responses) {
		enrichWarnings = append(enrichWarnings, result.warnings...)
		enriched = append(enriched, result.response)
	}
	for range enrichWarnings {
		c.metrics.RecordAlert(metrics.AlertVastModification)
	}

	processed := invokeBidderResponseHooks(executor, enriched, seatNonBids)

	var categories CategoryMappingResult
	if c.categoryMapper != nil {
		categories = c.categoryMapper.Map(ctx, processed, ac.request, ac.targeting, ac.account)
	} else {
		categories = CategoryMappingResult{Responses: processed}
	}

	seats, err := projectBidderResponses(ac, categories.Responses, categories, newTTLResolver(c.cfg, ac.account, ac.cacheSettings()))
	if err != nil {
		labels.Status = metrics.ResponseStatusErr
		c.logger.Errorf("Auction %s aborted: %v", ac.request.ID, err)
		return nil, err
	}

	policies, multiBidErrs := openrtb_ext.BuildMultiBidPolicies(ac.requestExt)

	in := assemblyInput{
		prebidErrors:     append(append(append([]error(nil), ac.errors...), storedErrs...), categories.Errors...),
		prebidWarnings:   append(append([]error(nil), ac.warnings...), enrichWarnings...),
		auctionTimestamp: ev.auctionTimestampMs,
		seatNonBids:      seatNonBids,
		debugHttpCalls:   r.DebugHttpCalls,
		resolvedRequest:  r.ResolvedBidRequest,
	}
	for _, mbErr := range multiBidErrs {
		in.prebidWarnings = append(in.prebidWarnings, &errortypes.Warning{
			Message:     mbErr.Error(),
			WarningCode: errortypes.MultiBidWarningCode,
		})
	}

	paa := &paaExtractor{debug: ac.debug, logger: c.logger, metrics: c.metrics}
	in.paa = paa.extract(ac, seats)
	in.prebidWarnings = append(in.prebidWarnings, in.paa.warnings...)

	if !hasBids(seats) {
		labels.Status = metrics.ResponseStatusNoBid
		in.seats = seats
		response := newResponseAssembler(c.cfg, ac, nil, c.logger).assembleEmpty(in)
		return c.withHookOutcomes(ac, executor, response), nil
	}

	seats = rankBids(seats, winningBidComparator(ac.preferDeals()), policies, seatNonBids)

	orchestrator := newCacheOrchestrator(c.bidCacher, c.clock, ac.cacheSettings(), c.cfg.Auction.CacheWinningOnly, ev)
	in.cache = orchestrator.cache(ctx, seats)
	in.seats = in.cache.seats

	var cacheHost, cachePath string
	if c.cacheClient != nil {
		_, cacheHost, cachePath = c.cacheClient.GetExtCacheData()
	}
	response := newResponseAssembler(c.cfg, ac, newTargetData(ac, cacheHost, cachePath), c.logger).assemble(in)

	for seat, nonBids := range *seatNonBids {
		c.metrics.RecordRejectedBids(metrics.AdapterLabels{Adapter: openrtb_ext.BidderName(seat), AccountID: ac.account.ID}, len(nonBids))
	}
	return c.withHookOutcomes(ac, executor, response), nil
}

// withHookOutcomes adds the module outcomes to ext.prebid.modules. The response is kept as is when
// they cannot be added.
func (c *BidResponseCreator) withHookOutcomes(ac *auctionContext, executor hookexecution.StageExecutor, response *openrtb2.BidResponse) *openrtb2.BidResponse {
	ext, err := hookexecution.EnrichExtBidResponse(response.Ext, executor.GetOutcomes(), ac.requestExt.Trace, ac.debug)
	if err != nil {
		c.logger.Warnf("Failed to add module outcomes to response %s: %v", response.ID, err)
		return response
	}
	response.Ext = ext
	return response
}
