package events

import (
	"fmt"
	"net/url"
	"strconv"
)

// EventType enumerates the values of events the auction can notify for an ad.
type EventType string

const (
	Win EventType = "win"
	Imp EventType = "imp"
)

const (
	TemplateUrl          = "%v/event?t=%v&b=%v&a=%v"
	BidderParameter      = "bidder"
	TimestampParameter   = "ts"
	IntegrationParameter = "int"
)

// EventRequest describes one notification url.
type EventRequest struct {
	Type        EventType
	BidID       string
	AccountID   string
	Bidder      string
	Timestamp   int64
	Integration string
}

// EventRequestToUrl converts an EventRequest to an url on the external host.
func EventRequestToUrl(externalUrl string, request *EventRequest) string {
	s := fmt.Sprintf(TemplateUrl, externalUrl, request.Type, url.QueryEscape(request.BidID), url.QueryEscape(request.AccountID))

	return s + optionalParameters(request)
}

func optionalParameters(request *EventRequest) string {
	r := url.Values{}

	if request.Timestamp > 0 {
		r.Add(TimestampParameter, strconv.FormatInt(request.Timestamp, 10))
	}

	if request.Bidder != "" {
		r.Add(BidderParameter, request.Bidder)
	}

	if request.Integration != "" {
		r.Add(IntegrationParameter, request.Integration)
	}

	opt := r.Encode()
	if opt != "" {
		return "&" + opt
	}

	return opt
}
