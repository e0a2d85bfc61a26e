package config

import (
	"fmt"
	"strings"

	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// ChannelType is the request channel an account setting applies to.
type ChannelType string

const (
	ChannelWeb   ChannelType = "web"
	ChannelAMP   ChannelType = "amp"
	ChannelApp   ChannelType = "app"
	ChannelVideo ChannelType = "video"
	ChannelDOOH  ChannelType = "dooh"
)

// Account represents a publisher account configuration
type Account struct {
	ID        string           `mapstructure:"id" json:"id"`
	Disabled  bool             `mapstructure:"disabled" json:"disabled"`
	Auction   AccountAuction   `mapstructure:"auction" json:"auction"`
	Analytics AccountAnalytics `mapstructure:"analytics" json:"analytics"`
	Hooks     AccountHooks     `mapstructure:"hooks" json:"hooks"`
}

// AccountAuction holds the auction response settings of an account.
type AccountAuction struct {
	Events  AccountEvents  `mapstructure:"events" json:"events"`
	Ranking AccountRanking `mapstructure:"ranking" json:"ranking"`
	// BannerCacheTTL and VideoCacheTTL override the host media type ttls, in seconds.
	BannerCacheTTL *int `mapstructure:"banner_cache_ttl" json:"banner_cache_ttl,omitempty"`
	VideoCacheTTL  *int `mapstructure:"video_cache_ttl" json:"video_cache_ttl,omitempty"`
	// TruncateTargetAttr overrides the host max length of targeting keys.
	TruncateTargetAttr *int                  `mapstructure:"truncate_target_attr" json:"truncate_target_attr,omitempty"`
	PaaFormat          openrtb_ext.PaaFormat `mapstructure:"paaformat" json:"paaformat,omitempty"`
	Targeting          AccountTargeting      `mapstructure:"targeting" json:"targeting"`
}

// AccountEvents enables win and impression event urls for the account.
type AccountEvents struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// AccountRanking exposes bid.ext.prebid.rank in the response.
type AccountRanking struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// AccountTargeting holds the account default of request targeting settings.
type AccountTargeting struct {
	Prefix string `mapstructure:"prefix" json:"prefix,omitempty"`
}

// AccountAnalytics holds per channel analytics settings.
type AccountAnalytics struct {
	// AuctionEvents enables event urls for requests coming from the given channels.
	AuctionEvents map[ChannelType]bool `mapstructure:"auction_events" json:"auction_events,omitempty"`
}

// AccountHooks holds the account specific hook execution plan.
type AccountHooks struct {
	ExecutionPlan HookExecutionPlan `mapstructure:"execution_plan" json:"execution_plan"`
}

// EventsEnabledForChannel reports whether the account enables events for the channel. The lookup is
// case insensitive and the "pbjs" channel is treated as "web".
func (a *AccountAnalytics) EventsEnabledForChannel(channel string) bool {
	if len(a.AuctionEvents) == 0 || channel == "" {
		return false
	}
	channel = strings.ToLower(channel)
	if channel == "pbjs" {
		channel = string(ChannelWeb)
	}
	for ch, enabled := range a.AuctionEvents {
		if strings.ToLower(string(ch)) == channel {
			return enabled
		}
	}
	return false
}

func (a *Account) validate(id string, errs []error) []error {
	if t := a.Auction.TruncateTargetAttr; t != nil && (*t < 0 || *t > 255) {
		errs = append(errs, fmt.Errorf("accounts.%s.auction.truncate_target_attr must be between 0 and 255. Got %d", id, *t))
	}
	if f := a.Auction.PaaFormat; f != "" && !f.IsValid() {
		errs = append(errs, fmt.Errorf("accounts.%s.auction.paaformat must be one of original, iab. Got %s", id, f))
	}
	if ttl := a.Auction.BannerCacheTTL; ttl != nil && *ttl < 0 {
		errs = append(errs, fmt.Errorf("accounts.%s.auction.banner_cache_ttl must not be negative. Got %d", id, *ttl))
	}
	if ttl := a.Auction.VideoCacheTTL; ttl != nil && *ttl < 0 {
		errs = append(errs, fmt.Errorf("accounts.%s.auction.video_cache_ttl must not be negative. Got %d", id, *ttl))
	}
	return a.Hooks.ExecutionPlan.validate(fmt.Sprintf("accounts.%s.hooks.execution_plan", id), errs)
}
