package events

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/macros"
)

// MakeVAST returns the markup of a video bid, wrapping the nurl into a VAST document when the bid has no adm.
func MakeVAST(bid *openrtb2.Bid) string {
	if bid.AdM == "" {
		return `<VAST version="3.0"><Ad><Wrapper>` +
			`<AdSystem>prebid.org wrapper</AdSystem>` +
			`<VASTAdTagURI><![CDATA[` + bid.NURL + `]]></VASTAdTagURI>` +
			`<Impression></Impression><Creatives></Creatives>` +
			`</Wrapper></Ad></VAST>`
	}
	return bid.AdM
}

// VASTModifier injects the impression event tracker and the host trackers into VAST documents.
type VASTModifier struct {
	externalURL string
	hostEvents  []config.VASTEvent
	replacer    macros.Replacer
}

func NewVASTModifier(externalURL string, hostEvents []config.VASTEvent) *VASTModifier {
	return &VASTModifier{
		externalURL: externalURL,
		hostEvents:  hostEvents,
		replacer:    macros.NewReplacer(),
	}
}

// Modify returns the VAST with the trackers added to every InLine and Wrapper ad.
// The bool is false when the document could not be parsed or holds no ad; the VAST is then returned as is.
// provider may be nil when no host tracker uses macros.
func (m *VASTModifier) Modify(vast string, request *EventRequest, provider macros.Provider) (string, bool) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	doc.WriteSettings.CanonicalEndTags = true
	if err := doc.ReadFromString(vast); err != nil {
		return vast, false
	}

	ads := append(doc.FindElements("VAST/Ad/InLine"), doc.FindElements("VAST/Ad/Wrapper")...)
	if len(ads) == 0 {
		return vast, false
	}

	impressionURL := EventRequestToUrl(m.externalURL, &EventRequest{
		Type:        Imp,
		BidID:       request.BidID,
		AccountID:   request.AccountID,
		Bidder:      request.Bidder,
		Timestamp:   request.Timestamp,
		Integration: request.Integration,
	})

	for _, ad := range ads {
		addImpression(ad, impressionURL)
		for _, event := range m.hostEvents {
			m.addHostEvent(ad, event, request, provider)
		}
	}

	modified, err := doc.WriteToString()
	if err != nil {
		return vast, false
	}
	return modified, true
}

func (m *VASTModifier) addHostEvent(ad *etree.Element, event config.VASTEvent, request *EventRequest, provider macros.Provider) {
	for _, url := range event.URLs {
		if provider != nil {
			provider.SetContext(macros.BidContext{
				BidID:     request.BidID,
				Bidder:    request.Bidder,
				VastEvent: string(event.CreateElement),
				EventType: string(event.Type),
			})
			url = m.replacer.Replace(url, provider)
		}

		switch event.CreateElement {
		case config.ImpressionVASTElement:
			addImpression(ad, url)
		case config.TrackingVASTElement:
			addTracking(ad, string(event.Type), url)
		}
	}
}

// addImpression places the new Impression after the existing ones, or first when there are none.
// An empty Impression placeholder is filled instead.
func addImpression(ad *etree.Element, url string) {
	impressions := ad.SelectElements("Impression")
	for _, impression := range impressions {
		if strings.TrimSpace(impression.Text()) == "" && len(impression.ChildElements()) == 0 {
			impression.Child = nil
			impression.CreateCData(url)
			return
		}
	}

	impression := etree.NewElement("Impression")
	impression.CreateCData(url)

	index := 0
	if len(impressions) > 0 {
		index = impressions[len(impressions)-1].Index() + 1
	} else if adSystem := ad.SelectElement("AdSystem"); adSystem != nil {
		index = adSystem.Index() + 1
	}
	ad.InsertChildAt(index, impression)
}

func addTracking(ad *etree.Element, eventType, url string) {
	for _, linear := range ad.FindElements("Creatives/Creative/Linear") {
		trackingEvents := linear.SelectElement("TrackingEvents")
		if trackingEvents == nil {
			trackingEvents = linear.CreateElement("TrackingEvents")
		}
		tracking := trackingEvents.CreateElement("Tracking")
		tracking.CreateAttr("event", eventType)
		tracking.CreateCData(url)
	}
}

// ModifyVastXmlString adds the impression event tracker of the bid to the VAST.
func ModifyVastXmlString(externalUrl, vast, bidid, bidder, accountID string, timestamp int64, integrationType string) (string, bool) {
	return NewVASTModifier(externalUrl, nil).Modify(vast, &EventRequest{
		BidID:       bidid,
		AccountID:   accountID,
		Bidder:      bidder,
		Timestamp:   timestamp,
		Integration: integrationType,
	}, nil)
}
