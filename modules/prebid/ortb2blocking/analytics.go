package ortb2blocking

import (
	"github.com/prebid/prebid-response-engine/hooks/hookanalytics"
)

const enforceBlockingActivity = "enforce_blocking"

// analyticKeys renames the attributes whose analytics key differs from the attribute name.
var analyticKeys = map[string]string{
	"badv":  "adomain",
	"bapp":  "bundle",
	"battr": "attr",
}

// blockingTags records one result per checked bid under the single
// enforce_blocking activity of the module.
type blockingTags struct {
	activity hookanalytics.Activity
}

func newBlockingTags() *blockingTags {
	return &blockingTags{activity: hookanalytics.Activity{
		Name:   enforceBlockingActivity,
		Status: hookanalytics.ActivityStatusSuccess,
	}}
}

func (t *blockingTags) failed() {
	t.activity.Status = hookanalytics.ActivityStatusError
}

func (t *blockingTags) allowed(bidder, impID string) {
	t.activity.Results = append(t.activity.Results, hookanalytics.Result{
		Status:    hookanalytics.ResultStatusAllow,
		AppliedTo: hookanalytics.AppliedTo{Bidders: []string{bidder}, ImpIds: []string{impID}},
	})
}

// blocked records the failed checks together with the offending bid values.
func (t *blockingTags) blocked(bidder, impID string, failedChecks []string, values map[string]interface{}) {
	tagValues := map[string]interface{}{"attributes": failedChecks}
	for attribute, value := range values {
		key, ok := analyticKeys[attribute]
		if !ok {
			key = attribute
		}
		tagValues[key] = value
	}

	t.activity.Results = append(t.activity.Results, hookanalytics.Result{
		Status:    hookanalytics.ResultStatusBlock,
		Values:    tagValues,
		AppliedTo: hookanalytics.AppliedTo{Bidders: []string{bidder}, ImpIds: []string{impID}},
	})
}

func (t *blockingTags) analytics() hookanalytics.Analytics {
	return hookanalytics.Analytics{Activities: []hookanalytics.Activity{t.activity}}
}
