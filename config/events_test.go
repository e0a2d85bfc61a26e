package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVASTEventValidate(t *testing.T) {
	testCases := []struct {
		description string
		event       VASTEvent
		expectedErr string
	}{
		{
			description: "valid impression",
			event:       VASTEvent{CreateElement: ImpressionVASTElement, URLs: []string{"http://tracker.com/imp"}},
		},
		{
			description: "valid tracking",
			event:       VASTEvent{CreateElement: TrackingVASTElement, Type: FirstQuartile, URLs: []string{"http://tracker.com/q1"}},
		},
		{
			description: "unknown element",
			event:       VASTEvent{CreateElement: "clicktracking", URLs: []string{"http://tracker.com"}},
			expectedErr: "Invalid event.vast_events[0].create_element",
		},
		{
			description: "type on impression",
			event:       VASTEvent{CreateElement: ImpressionVASTElement, Type: Start, URLs: []string{"http://tracker.com"}},
			expectedErr: "event.vast_events[0].type is not applicable for create element 'impression'",
		},
		{
			description: "missing tracking type",
			event:       VASTEvent{CreateElement: TrackingVASTElement, URLs: []string{"http://tracker.com"}},
			expectedErr: "Missing or Invalid event.vast_events[0].type",
		},
		{
			description: "no urls",
			event:       VASTEvent{CreateElement: ImpressionVASTElement},
			expectedErr: "event.vast_events[0].urls must not be empty",
		},
		{
			description: "invalid url",
			event:       VASTEvent{CreateElement: ImpressionVASTElement, URLs: []string{"http://tracker.com", "%%invalid"}},
			expectedErr: "Invalid event.vast_events[0].urls[1]",
		},
	}

	for _, test := range testCases {
		errs := Event{VASTEvents: []VASTEvent{test.event}}.validate(nil)
		if test.expectedErr == "" {
			assert.Empty(t, errs, test.description)
			continue
		}
		if assert.Len(t, errs, 1, test.description) {
			assert.EqualError(t, errs[0], test.expectedErr, test.description)
		}
	}
}

func TestModifiesVAST(t *testing.T) {
	event := Event{VASTModificationBidders: []string{"appnexus", "Rubicon"}}

	assert.True(t, event.ModifiesVAST("appnexus"))
	assert.True(t, event.ModifiesVAST("rubicon"))
	assert.False(t, event.ModifiesVAST("openx"))
}
