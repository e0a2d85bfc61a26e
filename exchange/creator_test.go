package exchange

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prebid/openrtb/v20/openrtb3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

func newTestCreator(cacheClient *wellBehavedCache, bidCacher BidCacher, me metrics.MetricsEngine) *BidResponseCreator {
	var c *BidResponseCreator
	if cacheClient != nil {
		c = NewBidResponseCreator(newTestConfig(), newTestCategoryMapper(me), cacheClient, bidCacher, nil, nil, me)
	} else {
		c = NewBidResponseCreator(newTestConfig(), newTestCategoryMapper(me), nil, bidCacher, nil, nil, me)
	}
	c.clock = clock.NewMock()
	c.logger = &recordingLogger{}
	return c
}

func creatorRequest(requestExt string) *AuctionRequest {
	return &AuctionRequest{
		BidRequest: &openrtb2.BidRequest{
			ID: "req",
			Imp: []openrtb2.Imp{
				{ID: "imp-1", Banner: &openrtb2.Banner{}},
				{ID: "imp-2", Native: &openrtb2.Native{Request: nativeRequest}},
			},
			Ext: json.RawMessage(requestExt),
		},
		Account: config.Account{ID: "acc", Auction: config.AccountAuction{Ranking: config.AccountRanking{Enabled: true}}},
	}
}

func responseBid(response *openrtb2.BidResponse, bidID string) *openrtb2.Bid {
	for i := range response.SeatBid {
		for j := range response.SeatBid[i].Bid {
			if response.SeatBid[i].Bid[j].ID == bidID {
				return &response.SeatBid[i].Bid[j]
			}
		}
	}
	return nil
}

func TestCreateRanksBiddersOfOneImp(t *testing.T) {
	c := newTestCreator(nil, nil, &metrics.NilMetricsEngine{})
	responses := []*entities.BidderResponse{
		bidderResponse("appnexus", bannerBid("a-1", "imp-1", 1)),
		bidderResponse("rubicon", bannerBid("r-1", "imp-1", 2)),
	}

	response, err := c.Create(context.Background(), creatorRequest(`{"prebid":{"targeting":{}}}`), responses)

	require.NoError(t, err)
	require.Len(t, response.SeatBid, 2)

	winner := responseBid(response, "r-1")
	require.NotNil(t, winner)
	assert.Equal(t, int64(1), gjson.GetBytes(winner.Ext, "prebid.rank").Int())
	assert.Equal(t, "2.00", gjson.GetBytes(winner.Ext, "prebid.targeting.hb_pb").String())
	assert.Equal(t, "rubicon", gjson.GetBytes(winner.Ext, "prebid.targeting.hb_bidder").String())

	loser := responseBid(response, "a-1")
	require.NotNil(t, loser)
	assert.Equal(t, int64(2), gjson.GetBytes(loser.Ext, "prebid.rank").Int())
	assert.False(t, gjson.GetBytes(loser.Ext, "prebid.targeting.hb_pb").Exists())
	assert.Equal(t, "1.00", gjson.GetBytes(loser.Ext, "prebid.targeting.hb_pb_appnexus").String())
	assert.Equal(t, "banner", gjson.GetBytes(loser.Ext, "prebid.type").String())
}

func TestCreateLimitsBidsPerBidder(t *testing.T) {
	testCases := []struct {
		description        string
		requestExt         string
		expectedSecondCode string
	}{
		{
			description: "without prefix",
			requestExt:  `{"prebid":{"targeting":{},"returnallbidstatus":true,"multibid":[{"bidder":"appnexus","maxbids":2}]}}`,
		},
		{
			description:        "with prefix",
			requestExt:         `{"prebid":{"targeting":{},"returnallbidstatus":true,"multibid":[{"bidder":"appnexus","maxbids":2,"targetbiddercodeprefix":"apn"}]}}`,
			expectedSecondCode: "apn2",
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			c := newTestCreator(nil, nil, &metrics.NilMetricsEngine{})
			responses := []*entities.BidderResponse{
				bidderResponse("appnexus", bannerBid("a-3", "imp-1", 3), bannerBid("a-1", "imp-1", 1), bannerBid("a-2", "imp-1", 2)),
			}

			response, err := c.Create(context.Background(), creatorRequest(test.requestExt), responses)

			require.NoError(t, err)
			require.Len(t, response.SeatBid, 1)
			require.Len(t, response.SeatBid[0].Bid, 2)
			assert.Nil(t, responseBid(response, "a-1"))

			first := responseBid(response, "a-3")
			require.NotNil(t, first)
			assert.Equal(t, "appnexus", gjson.GetBytes(first.Ext, "prebid.targetbiddercode").String())
			assert.Equal(t, "3.00", gjson.GetBytes(first.Ext, "prebid.targeting.hb_pb").String())

			second := responseBid(response, "a-2")
			require.NotNil(t, second)
			assert.Equal(t, test.expectedSecondCode, gjson.GetBytes(second.Ext, "prebid.targetbiddercode").String())
			if test.expectedSecondCode == "" {
				assert.False(t, gjson.GetBytes(second.Ext, "prebid.targeting").Exists())
			} else {
				assert.Equal(t, "2.00", gjson.GetBytes(second.Ext, "prebid.targeting.hb_pb_apn2").String())
			}

			nonBids := gjson.GetBytes(response.Ext, "prebid.seatnonbid.0.nonbid").Array()
			require.Len(t, nonBids, 1)
			assert.Equal(t, int64(openrtb_ext.ResponseRejectedGeneral), nonBids[0].Get("statuscode").Int())
			assert.Equal(t, float64(1), nonBids[0].Get("ext.prebid.bid.price").Float())
		})
	}
}

func TestCreateWithoutBids(t *testing.T) {
	me := &metrics.MetricsEngineMock{}
	me.On("RecordAuctionResponse", metrics.AuctionLabels{Status: metrics.ResponseStatusNoBid, AccountID: "acc"}).Return()
	me.On("RecordResponseBuildTime", metrics.AuctionLabels{Status: metrics.ResponseStatusNoBid, AccountID: "acc"}, mock.Anything).Return()
	cacher := &recordingBidCacher{}
	c := newTestCreator(nil, cacher, me)
	responses := []*entities.BidderResponse{bidderResponse("appnexus"), bidderResponse("rubicon")}

	response, err := c.Create(context.Background(), creatorRequest(`{"prebid":{"targeting":{},"cache":{"bids":{}}}}`), responses)

	require.NoError(t, err)
	assert.Equal(t, "req", response.ID)
	assert.NotNil(t, response.SeatBid)
	assert.Empty(t, response.SeatBid)
	require.NotNil(t, response.NBR)
	assert.Equal(t, openrtb3.NoBidUnknownError, *response.NBR)
	assert.Nil(t, cacher.records)
	assert.Equal(t, int64(20), gjson.GetBytes(response.Ext, "responsetimemillis.appnexus").Int())
	me.AssertExpectations(t)
}

func TestCreateCachesZeroPricedDealsOnly(t *testing.T) {
	cacher := &recordingBidCacher{}
	c := newTestCreator(nil, cacher, &metrics.NilMetricsEngine{})

	deal := bannerBid("r-1", "imp-1", 0)
	deal.Bid.DealID = "deal-1"
	responses := []*entities.BidderResponse{
		bidderResponse("appnexus", bannerBid("a-1", "imp-1", 0)),
		bidderResponse("rubicon", deal),
		bidderResponse("openx", bannerBid("o-1", "imp-1", 1.5)),
	}

	response, err := c.Create(context.Background(), creatorRequest(`{"prebid":{"targeting":{},"cache":{"bids":{}}}}`), responses)

	require.NoError(t, err)
	cached := make([]string, 0, len(cacher.records))
	for _, record := range cacher.records {
		cached = append(cached, record.Bid.ID)
	}
	assert.ElementsMatch(t, []string{"r-1", "o-1"}, cached)
	assert.True(t, cacher.context.CacheBids)
	assert.False(t, cacher.context.CacheVideoBids)

	assert.Equal(t, "cache-o-1", gjson.GetBytes(responseBid(response, "o-1").Ext, "prebid.cache.bids.cacheId").String())
	assert.Equal(t, "cache-o-1", gjson.GetBytes(responseBid(response, "o-1").Ext, "prebid.targeting.hb_cache_id").String())
	assert.False(t, gjson.GetBytes(responseBid(response, "a-1").Ext, "prebid.cache").Exists())
	assert.Equal(t, int64(300), responseBid(response, "a-1").Exp)
}

func TestCreateCacheFailure(t *testing.T) {
	c := NewBidResponseCreator(newTestConfig(), nil, failingCache{}, nil, nil, nil, &metrics.NilMetricsEngine{})
	c.clock = clock.NewMock()
	responses := []*entities.BidderResponse{
		bidderResponse("appnexus", bannerBid("a-1", "imp-1", 1)),
		bidderResponse("rubicon", bannerBid("r-1", "imp-1", 2)),
	}

	response, err := c.Create(context.Background(), creatorRequest(`{"prebid":{"targeting":{},"cache":{"bids":{}}}}`), responses)

	require.NoError(t, err)
	require.Len(t, response.SeatBid, 2)
	for _, seatBid := range response.SeatBid {
		for _, bid := range seatBid.Bid {
			assert.False(t, gjson.GetBytes(bid.Ext, "prebid.cache").Exists())
			assert.False(t, gjson.GetBytes(bid.Ext, "prebid.targeting.hb_cache_id").Exists())
			assert.NotEmpty(t, bid.AdM)
			assert.Equal(t, int64(300), bid.Exp)
		}
	}

	cacheErrors := gjson.GetBytes(response.Ext, "errors.cache").Array()
	require.Len(t, cacheErrors, 1)
	assert.Equal(t, "cache timeout", cacheErrors[0].Get("message").String())
	assert.Equal(t, int64(errortypes.FailedToCacheBidsErrorCode), cacheErrors[0].Get("code").Int())
	assert.True(t, gjson.GetBytes(response.Ext, "responsetimemillis.cache").Exists())
}

func TestCreateWithCacheClient(t *testing.T) {
	cache := &wellBehavedCache{}
	c := newTestCreator(cache, nil, &metrics.NilMetricsEngine{})
	responses := []*entities.BidderResponse{bidderResponse("appnexus", bannerBid("a-1", "imp-1", 1))}

	response, err := c.Create(context.Background(), creatorRequest(`{"prebid":{"targeting":{},"cache":{"bids":{}},"debug":true}}`), responses)

	require.NoError(t, err)
	require.Len(t, cache.calls, 1)
	require.Len(t, cache.calls[0], 1)

	bid := responseBid(response, "a-1")
	cacheID := gjson.GetBytes(bid.Ext, "prebid.cache.bids.cacheId").String()
	assert.NotEmpty(t, cacheID)
	assert.Equal(t, cacheID, gjson.GetBytes(bid.Ext, "prebid.targeting.hb_cache_id").String())
	assert.Equal(t, "www.pbcserver.com", gjson.GetBytes(bid.Ext, "prebid.targeting.hb_cache_host").String())
	assert.Equal(t, "/pbcache/endpoint", gjson.GetBytes(bid.Ext, "prebid.targeting.hb_cache_path").String())
	assert.Equal(t, int64(300), bid.Exp)
	assert.Equal(t, "https://www.pbcserver.com/pbcache/endpoint", gjson.GetBytes(response.Ext, "debug.httpcalls.cache.0.uri").String())
}

func TestCreateVastOnlyCachingKeepsBannerTTL(t *testing.T) {
	cache := &wellBehavedCache{}
	c := newTestCreator(cache, nil, &metrics.NilMetricsEngine{})
	responses := []*entities.BidderResponse{bidderResponse("appnexus", bannerBid("a-1", "imp-1", 1))}

	response, err := c.Create(context.Background(), creatorRequest(`{"prebid":{"targeting":{},"cache":{"vastxml":{}}}}`), responses)

	require.NoError(t, err)
	assert.Empty(t, cache.calls)

	bid := responseBid(response, "a-1")
	assert.Equal(t, int64(300), bid.Exp)
	assert.False(t, gjson.GetBytes(bid.Ext, "prebid.cache").Exists())
	assert.False(t, gjson.GetBytes(bid.Ext, "prebid.targeting.hb_cache_id").Exists())
}

func TestCreateDropsInvalidNativeBid(t *testing.T) {
	c := newTestCreator(nil, nil, &metrics.NilMetricsEngine{})

	broken := bannerBid("a-1", "imp-2", 2)
	broken.BidType = openrtb_ext.BidTypeNative
	broken.Bid.AdM = `{"assets":[{"id":5,"img":{"url":"http://img"}}]}`
	sibling := bannerBid("a-2", "imp-2", 1)
	sibling.BidType = openrtb_ext.BidTypeNative
	sibling.Bid.AdM = `{"assets":[{"id":2,"data":{"value":"desc"}}]}`
	responses := []*entities.BidderResponse{bidderResponse("appnexus", broken, sibling)}

	response, err := c.Create(context.Background(), creatorRequest(`{"prebid":{"targeting":{},"multibid":[{"bidder":"appnexus","maxbids":2}]}}`), responses)

	require.NoError(t, err)
	require.Len(t, response.SeatBid, 1)
	require.Len(t, response.SeatBid[0].Bid, 1)
	assert.Equal(t, "a-2", response.SeatBid[0].Bid[0].ID)
	assert.Equal(t, int64(2), gjson.Get(response.SeatBid[0].Bid[0].AdM, "assets.0.data.type").Int())

	seatErrors := gjson.GetBytes(response.Ext, "errors.appnexus").Array()
	require.Len(t, seatErrors, 1)
	assert.Equal(t, int64(errortypes.BadServerResponseErrorCode), seatErrors[0].Get("code").Int())
}

func TestCreateBidForUnknownImp(t *testing.T) {
	me := &metrics.MetricsEngineMock{}
	errLabels := metrics.AuctionLabels{Status: metrics.ResponseStatusErr, AccountID: "acc"}
	me.On("RecordAdapterBidReceived", mock.Anything, mock.Anything, mock.Anything).Return()
	me.On("RecordAuctionResponse", errLabels).Return()
	me.On("RecordResponseBuildTime", errLabels, mock.Anything).Return()
	me.On("RecordCategoryMappingError", mock.Anything).Return().Maybe()
	c := newTestCreator(nil, nil, me)

	response, err := c.Create(context.Background(), creatorRequest(`{}`), []*entities.BidderResponse{
		bidderResponse("appnexus", bannerBid("a-1", "imp-9", 1)),
	})

	assert.Nil(t, response)
	var violation *errortypes.InvariantViolation
	require.ErrorAs(t, err, &violation)
	me.AssertExpectations(t)

	logs := c.logger.(*recordingLogger)
	require.Len(t, logs.errors, 1)
	assert.Contains(t, logs.errors[0], "Auction req aborted")
}

func TestCreateRecordsMetrics(t *testing.T) {
	me := &metrics.MetricsEngineMock{}
	okLabels := metrics.AuctionLabels{Status: metrics.ResponseStatusOK, AccountID: "acc"}
	me.On("RecordAdapterBidReceived", metrics.AdapterLabels{Adapter: "appnexus", AccountID: "acc"}, openrtb_ext.BidTypeBanner, true).Return()
	me.On("RecordAuctionResponse", okLabels).Return()
	me.On("RecordResponseBuildTime", okLabels, mock.Anything).Return()
	me.On("RecordRejectedBids", metrics.AdapterLabels{Adapter: "appnexus", AccountID: "acc"}, 1).Return()
	c := newTestCreator(nil, nil, me)

	_, err := c.Create(context.Background(), creatorRequest(`{"prebid":{"multibid":[{"bidder":"appnexus","maxbids":1}]}}`), []*entities.BidderResponse{
		bidderResponse("appnexus", bannerBid("a-1", "imp-1", 1), bannerBid("a-2", "imp-1", 2)),
	})

	require.NoError(t, err)
	me.AssertExpectations(t)
	me.AssertNumberOfCalls(t, "RecordAdapterBidReceived", 2)
}

func TestCreateRunsHooks(t *testing.T) {
	c := newTestCreator(nil, nil, &metrics.NilMetricsEngine{})
	request := creatorRequest(`{"prebid":{"targeting":{},"returnallbidstatus":true}}`)
	executor := &mockStageExecutor{reject: map[openrtb_ext.BidderName]bool{"rubicon": true}, minPrice: 1}
	request.HookExecutor = executor

	response, err := c.Create(context.Background(), request, []*entities.BidderResponse{
		bidderResponse("appnexus", bannerBid("a-1", "imp-1", 0.5), bannerBid("a-2", "imp-1", 1.5)),
		bidderResponse("rubicon", bannerBid("r-1", "imp-1", 3)),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, executor.calls)
	require.Len(t, response.SeatBid, 1)
	require.Len(t, response.SeatBid[0].Bid, 1)
	assert.Equal(t, "a-2", response.SeatBid[0].Bid[0].ID)
	assert.Equal(t, int64(1), gjson.GetBytes(response.SeatBid[0].Bid[0].Ext, "prebid.rank").Int())

	nonBids := gjson.GetBytes(response.Ext, "prebid.seatnonbid").Array()
	require.Len(t, nonBids, 1)
	assert.Equal(t, "rubicon", nonBids[0].Get("seat").String())
}

func TestCreateReportsMultiBidWarnings(t *testing.T) {
	c := newTestCreator(nil, nil, &metrics.NilMetricsEngine{})

	response, err := c.Create(context.Background(), creatorRequest(`{"prebid":{"multibid":[{"bidder":"appnexus"}]}}`), []*entities.BidderResponse{
		bidderResponse("appnexus", bannerBid("a-1", "imp-1", 1)),
	})

	require.NoError(t, err)
	warnings := gjson.GetBytes(response.Ext, "warnings.prebid").Array()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(errortypes.MultiBidWarningCode), warnings[0].Get("code").Int())
	assert.Contains(t, warnings[0].Get("message").String(), "maxBids not defined")
}
