package openrtb_ext

import (
	"encoding/json"
)

// ExtIgi defines the contract for bidresponse.ext.igi[] and for the interest group
// signals bidders attach to their seat responses.
type ExtIgi struct {
	ImpId string          `json:"impid,omitempty"`
	Igb   []*ExtIgiIgb    `json:"igb,omitempty"`
	Igs   []*ExtIgiIgs    `json:"igs,omitempty"`
	Ext   json.RawMessage `json:"ext,omitempty"`
}

// ExtIgiIgs is an interest group seller auction config.
type ExtIgiIgs struct {
	ImpId  string          `json:"impid,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
	Ext    *ExtIgiIgsExt   `json:"ext,omitempty"`
}

// ExtIgiIgsExt tags an igs entry with the seat and adapter that produced it.
type ExtIgiIgsExt struct {
	Bidder  string `json:"bidder,omitempty"`
	Adapter string `json:"adapter,omitempty"`
}

// ExtIgiIgb is an interest group buyer signal. It is passed through untouched.
type ExtIgiIgb struct {
	Origin string          `json:"origin,omitempty"`
	MaxBid float64         `json:"maxbid,omitempty"`
	Cur    string          `json:"cur,omitempty"`
	PBS    json.RawMessage `json:"pbs,omitempty"`
	PS     json.RawMessage `json:"ps,omitempty"`
	Ext    json.RawMessage `json:"ext,omitempty"`
}
