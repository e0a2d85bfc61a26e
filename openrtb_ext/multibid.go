package openrtb_ext

import "fmt"

const DefaultBidLimit = 1
const MaxBidLimit = 9

// MultiBidPolicy is the resolved multibid setting of one bidder.
type MultiBidPolicy struct {
	MaxBids                int
	TargetBidderCodePrefix string
}

// MultiBidPolicies maps a bidder code to its policy. Bidders without an entry get DefaultBidLimit
// and no target bidder code prefix.
type MultiBidPolicies map[string]MultiBidPolicy

// For returns the policy of the given bidder.
func (p MultiBidPolicies) For(bidder string) MultiBidPolicy {
	if policy, ok := p[bidder]; ok {
		return policy
	}
	return MultiBidPolicy{MaxBids: DefaultBidLimit}
}

// BuildMultiBidPolicies validates bidrequest.ext.prebid.multibid. Invalid entries are skipped or
// clamped, each adjustment is reported as an error meant to be returned as a warning.
func BuildMultiBidPolicies(prebid *ExtRequestPrebid) (MultiBidPolicies, []error) {
	policies := MultiBidPolicies{}
	if prebid == nil {
		return policies, nil
	}

	var errs []error
	for _, multiBid := range prebid.MultiBid {
		if multiBid == nil {
			continue
		}
		errs = append(errs, addMultiBidPolicy(policies, *multiBid)...)
	}
	return policies, errs
}

func addMultiBidPolicy(policies MultiBidPolicies, multiBid ExtMultiBid) []error {
	var errs []error

	if multiBid.MaxBids == nil {
		return append(errs, fmt.Errorf("maxBids not defined for %v", describeMultiBid(multiBid)))
	}

	maxBids := *multiBid.MaxBids
	if maxBids < DefaultBidLimit {
		errs = append(errs, fmt.Errorf("invalid maxBids value, using minimum %d limit for %v", DefaultBidLimit, describeMultiBid(multiBid)))
		maxBids = DefaultBidLimit
	}
	if maxBids > MaxBidLimit {
		errs = append(errs, fmt.Errorf("invalid maxBids value, using maximum %d limit for %v", MaxBidLimit, describeMultiBid(multiBid)))
		maxBids = MaxBidLimit
	}

	switch {
	case multiBid.Bidder != "":
		if _, ok := policies[multiBid.Bidder]; ok {
			return append(errs, fmt.Errorf("multiBid already defined for %s, ignoring this instance %v", multiBid.Bidder, describeMultiBid(multiBid)))
		}
		if len(multiBid.Bidders) > 0 {
			errs = append(errs, fmt.Errorf("ignoring bidders from %v", describeMultiBid(multiBid)))
		}
		policies[multiBid.Bidder] = MultiBidPolicy{MaxBids: maxBids, TargetBidderCodePrefix: multiBid.TargetBidderCodePrefix}

	case len(multiBid.Bidders) > 0:
		if multiBid.TargetBidderCodePrefix != "" {
			errs = append(errs, fmt.Errorf("ignoring targetbiddercodeprefix for %v", describeMultiBid(multiBid)))
		}
		for _, bidder := range multiBid.Bidders {
			if _, ok := policies[bidder]; ok {
				errs = append(errs, fmt.Errorf("multiBid already defined for %s, ignoring this instance %v", bidder, describeMultiBid(multiBid)))
				continue
			}
			policies[bidder] = MultiBidPolicy{MaxBids: maxBids}
		}

	default:
		errs = append(errs, fmt.Errorf("bidder(s) not specified for %v", describeMultiBid(multiBid)))
	}
	return errs
}

func describeMultiBid(multiBid ExtMultiBid) string {
	maxBids := "<nil>"
	if multiBid.MaxBids != nil {
		maxBids = fmt.Sprint(*multiBid.MaxBids)
	}
	return fmt.Sprintf("{bidder:%q bidders:%v maxbids:%s prefix:%q}", multiBid.Bidder, multiBid.Bidders, maxBids, multiBid.TargetBidderCodePrefix)
}
