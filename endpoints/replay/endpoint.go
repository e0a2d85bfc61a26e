package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/exchange"
	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/hooks"
	"github.com/prebid/prebid-response-engine/hooks/hookexecution"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
)

// maxDocumentSize bounds the body of a replay request.
const maxDocumentSize = 4 << 20

// ResponseCreator is the part of exchange.BidResponseCreator the endpoint needs.
type ResponseCreator interface {
	Create(ctx context.Context, r *exchange.AuctionRequest, responses []*entities.BidderResponse) (*openrtb2.BidResponse, error)
}

// Runner turns recorded auctions into bid responses.
type Runner struct {
	creator     ResponseCreator
	cfg         *config.Configuration
	planBuilder hooks.ExecutionPlanBuilder
	metrics     metrics.MetricsEngine
}

func NewRunner(creator ResponseCreator, cfg *config.Configuration, planBuilder hooks.ExecutionPlanBuilder, me metrics.MetricsEngine) (*Runner, error) {
	if creator == nil || cfg == nil || me == nil {
		return nil, errors.New("NewRunner requires non-nil arguments.")
	}
	return &Runner{creator: creator, cfg: cfg, planBuilder: planBuilder, metrics: me}, nil
}

// Run decodes the document and builds its bid response. The context is bounded by the request tmax.
func (r *Runner) Run(ctx context.Context, data []byte) (*openrtb2.BidResponse, error) {
	doc, request, err := Decode(data)
	if err != nil {
		return nil, &invalidDocument{err}
	}

	if request.TMax > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(request.TMax)*time.Millisecond)
		defer cancel()
	}

	auctionRequest, responses := doc.AuctionRequest(r.cfg, request)
	auctionRequest.StartTime = time.Now()
	if r.cfg.Hooks.Enabled && r.planBuilder != nil {
		auctionRequest.HookExecutor = hookexecution.NewHookExecutor(r.planBuilder, &auctionRequest.Account, r.metrics)
	}
	return r.creator.Create(ctx, auctionRequest, responses)
}

// Endpoint serves POST /openrtb2/response.
func (r *Runner) Endpoint(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	data, err := io.ReadAll(io.LimitReader(req.Body, maxDocumentSize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Failed to read request body: %v\n", err)
		return
	}

	response, err := r.Run(req.Context(), data)
	if err != nil {
		var invalid *invalidDocument
		if errors.As(err, &invalid) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Invalid request format: %s\n", invalid.err.Error())
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Critical error while building the response: %v", err)
		return
	}

	responseBytes, err := jsonutil.Marshal(response)
	if err != nil {
		glog.Errorf("Failed to marshal response %s: %v", response.ID, err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Failed to marshal bid response: %v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(responseBytes)
}

type invalidDocument struct {
	err error
}

func (e *invalidDocument) Error() string {
	return e.err.Error()
}

func (e *invalidDocument) Unwrap() error {
	return e.err
}
