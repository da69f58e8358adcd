package services

import (
	"context"

	"github.com/google/uuid"

	"finflow/utils"
)

// FeatureGateway wraps any metered feature with the uniform
// check-execute-log-count sequence. Features plug in as closures rather than
// subclasses; the gateway owns the enforcement order.
//
// The quota check and the usage write are two separate transactions with no
// lock between them, so concurrent invocations for one (user, feature) pair
// can all pass the check before any of them logs. The overshoot is bounded by
// the concurrency degree.
type FeatureGateway struct {
	subscriptions *SubscriptionService
}

func NewFeatureGateway(subscriptions *SubscriptionService) *FeatureGateway {
	return &FeatureGateway{subscriptions: subscriptions}
}

func (g *FeatureGateway) Run(ctx context.Context, userID uuid.UUID, featureName string, execute func(context.Context) (interface{}, error)) (interface{}, error) {
	ok, err := g.subscriptions.CheckUsageLimit(ctx, userID, featureName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUsageLimitExceeded
	}

	// A failing feature propagates unchanged and consumes no quota.
	result, err := execute(ctx)
	if err != nil {
		return nil, err
	}

	if err := g.subscriptions.LogUsage(ctx, userID, featureName); err != nil {
		return nil, err
	}

	utils.FeatureUsageTotal.WithLabelValues(featureName, userID.String()).Inc()

	return result, nil
}
