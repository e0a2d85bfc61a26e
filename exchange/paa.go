package exchange

import (
	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/logger"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// paaOutput is the protected audience part of the response ext.
type paaOutput struct {
	igi      []*openrtb_ext.ExtIgi
	fledge   *openrtb_ext.Fledge
	warnings []error
}

// paaBuilder turns the validated igis into the igi and fledge outputs of one format.
type paaBuilder func(igis []*openrtb_ext.ExtIgi) ([]*openrtb_ext.ExtIgi, []*openrtb_ext.FledgeAuctionConfig)

var paaBuilders = map[openrtb_ext.PaaFormat]paaBuilder{
	openrtb_ext.PaaFormatOriginal: buildOriginalPaa,
	openrtb_ext.PaaFormatIAB:      buildIabPaa,
}

func buildOriginalPaa(igis []*openrtb_ext.ExtIgi) ([]*openrtb_ext.ExtIgi, []*openrtb_ext.FledgeAuctionConfig) {
	var configs []*openrtb_ext.FledgeAuctionConfig
	for _, igi := range igis {
		for _, igs := range igi.Igs {
			config := &openrtb_ext.FledgeAuctionConfig{ImpId: igs.ImpId, Config: igs.Config}
			if igs.Ext != nil {
				config.Bidder = igs.Ext.Bidder
				config.Adapter = igs.Ext.Adapter
			}
			configs = append(configs, config)
		}
	}
	return nil, configs
}

func buildIabPaa(igis []*openrtb_ext.ExtIgi) ([]*openrtb_ext.ExtIgi, []*openrtb_ext.FledgeAuctionConfig) {
	if len(igis) == 0 {
		return nil, nil
	}
	return igis, nil
}

// paaExtractor validates the interest group signals of the seats and renders them in the auction format.
type paaExtractor struct {
	debug   bool
	logger  logger.Logger
	metrics metrics.MetricsEngine
}

func (pe *paaExtractor) extract(ac *auctionContext, seats []*SeatResponse) paaOutput {
	var out paaOutput

	var igis []*openrtb_ext.ExtIgi
	for _, seat := range seats {
		for _, igi := range seat.Igi {
			if prepared := pe.prepareIgi(igi, seat, &out); prepared != nil {
				igis = append(igis, prepared)
			}
		}
	}

	build, ok := paaBuilders[ac.paaFormat()]
	if !ok {
		build = buildOriginalPaa
	}
	var configs []*openrtb_ext.FledgeAuctionConfig
	out.igi, configs = build(igis)

	configs = append(deprecatedFledgeConfigs(ac, seats), configs...)
	if len(configs) > 0 {
		out.fledge = &openrtb_ext.Fledge{AuctionConfigs: configs}
	}
	return out
}

// prepareIgi drops the igb of an igi without imp id and the igs entries without imp id or config.
// It returns nil when nothing is left.
func (pe *paaExtractor) prepareIgi(igi *openrtb_ext.ExtIgi, seat *SeatResponse, out *paaOutput) *openrtb_ext.ExtIgi {
	if igi == nil {
		return nil
	}

	igb := igi.Igb
	if igi.ImpId == "" && len(igi.Igb) > 0 {
		pe.warn(out, "ExtIgi with absent impId from bidder: "+seat.Seat)
		igb = nil
	}

	var igs []*openrtb_ext.ExtIgiIgs
	for _, entry := range igi.Igs {
		if entry == nil {
			continue
		}
		if entry.ImpId == "" {
			pe.warn(out, "ExtIgiIgs with absent impId from bidder: "+seat.Seat)
			continue
		}
		if len(entry.Config) == 0 {
			pe.warn(out, "ExtIgiIgs with absent config from bidder: "+seat.Seat)
			continue
		}
		igs = append(igs, &openrtb_ext.ExtIgiIgs{
			ImpId:  entry.ImpId,
			Config: entry.Config,
			Ext:    &openrtb_ext.ExtIgiIgsExt{Bidder: seat.Seat, Adapter: seat.AdapterCode},
		})
	}

	if len(igs) == 0 && len(igb) == 0 {
		return nil
	}
	return &openrtb_ext.ExtIgi{ImpId: igi.ImpId, Igb: igb, Igs: igs, Ext: igi.Ext}
}

func (pe *paaExtractor) warn(out *paaOutput, message string) {
	if pe.debug {
		out.warnings = append(out.warnings, &errortypes.Warning{
			Message:     message,
			WarningCode: errortypes.InvalidInterestGroupWarningCode,
		})
	}
	pe.logger.Warnf("%s", message)
	pe.metrics.RecordAlert(metrics.AlertInterestGroup)
}

// deprecatedFledgeConfigs returns the fledge auction configs of the seats for the imps asking for an
// on device auction, tagged with their seat and adapter.
func deprecatedFledgeConfigs(ac *auctionContext, seats []*SeatResponse) []*openrtb_ext.FledgeAuctionConfig {
	var configs []*openrtb_ext.FledgeAuctionConfig
	for _, seat := range seats {
		for _, config := range seat.FledgeAuctionConfigs {
			if config == nil || !isOnDeviceAuction(ac, config.ImpId) {
				continue
			}
			configs = append(configs, &openrtb_ext.FledgeAuctionConfig{
				ImpId:   config.ImpId,
				Bidder:  seat.Seat,
				Adapter: seat.AdapterCode,
				Config:  config.Config,
			})
		}
	}
	return configs
}

func isOnDeviceAuction(ac *auctionContext, impID string) bool {
	imp, ok := ac.imps[impID]
	if !ok {
		return false
	}
	return ac.impExt(imp).AE == openrtb_ext.OnDeviceIGAuctionFledge
}
