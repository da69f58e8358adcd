package models

// Subscription tiers. Quotas are lifetime counts per (user, feature); there is
// no decay, rolling window or reset. Changing a quota requires a deployment.
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// Metered feature names. Every UsageLog row must use one of these.
const (
	FeaturePortfolio   = "portfolio"
	FeatureLLMRequests = "llm_requests"
)

type TierLimits struct {
	PortfolioLimit   int
	LLMRequestsLimit int
}

var TierCatalog = map[string]TierLimits{
	TierFree:    {PortfolioLimit: 5, LLMRequestsLimit: 10},
	TierPremium: {PortfolioLimit: 100, LLMRequestsLimit: 1000},
}

// LimitFor returns the quota for a feature name, or false for features the
// catalog does not know about.
func (l TierLimits) LimitFor(featureName string) (int, bool) {
	switch featureName {
	case FeaturePortfolio:
		return l.PortfolioLimit, true
	case FeatureLLMRequests:
		return l.LLMRequestsLimit, true
	default:
		return 0, false
	}
}
