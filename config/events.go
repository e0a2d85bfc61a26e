package config

import (
	"fmt"
	"strings"
)

// VASTEventElement is the VAST element created for an additional tracker.
type VASTEventElement string

const (
	ImpressionVASTElement VASTEventElement = "impression"
	TrackingVASTElement   VASTEventElement = "tracking"
)

// TrackingEventType is the event attribute of a created Tracking element.
type TrackingEventType string

const (
	Start         TrackingEventType = "start"
	FirstQuartile TrackingEventType = "firstQuartile"
	MidPoint      TrackingEventType = "midpoint"
	ThirdQuartile TrackingEventType = "thirdQuartile"
	Complete      TrackingEventType = "complete"
)

var trackingEventTypes = map[TrackingEventType]struct{}{
	Start:         {},
	FirstQuartile: {},
	MidPoint:      {},
	ThirdQuartile: {},
	Complete:      {},
}

// Event configures the event trackers added to the bids.
type Event struct {
	// VASTModificationBidders lists the bidders whose VAST markup may be rewritten to carry the
	// impression event tracker.
	VASTModificationBidders []string `mapstructure:"vast_modification_bidders"`
	// VASTEvents are host trackers added next to the impression event tracker.
	VASTEvents []VASTEvent `mapstructure:"vast_events"`
}

// VASTEvent describes one host tracker injected into modified VAST documents.
type VASTEvent struct {
	CreateElement VASTEventElement  `mapstructure:"create_element" json:"create_element"`
	Type          TrackingEventType `mapstructure:"type" json:"type"`
	URLs          []string          `mapstructure:"urls" json:"urls"`
}

// ModifiesVAST reports whether the VAST of the given bidder may be rewritten.
func (e Event) ModifiesVAST(bidder string) bool {
	for _, b := range e.VASTModificationBidders {
		if strings.EqualFold(b, bidder) {
			return true
		}
	}
	return false
}

func (e Event) validate(errs []error) []error {
	for i, event := range e.VASTEvents {
		if err := event.validate(i); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (e VASTEvent) validate(index int) error {
	switch e.CreateElement {
	case ImpressionVASTElement:
		if e.Type != "" {
			return fmt.Errorf("event.vast_events[%d].type is not applicable for create element '%s'", index, e.CreateElement)
		}
	case TrackingVASTElement:
		if _, ok := trackingEventTypes[e.Type]; !ok {
			return fmt.Errorf("Missing or Invalid event.vast_events[%d].type", index)
		}
	default:
		return fmt.Errorf("Invalid event.vast_events[%d].create_element", index)
	}
	if len(e.URLs) == 0 {
		return fmt.Errorf("event.vast_events[%d].urls must not be empty", index)
	}
	for i, u := range e.URLs {
		if !isValidURL(u) {
			return fmt.Errorf("Invalid event.vast_events[%d].urls[%d]", index, i)
		}
	}
	return nil
}
