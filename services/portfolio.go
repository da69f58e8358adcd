package services

import (
	"context"
	"math"

	"github.com/google/uuid"

	"finflow/models"
)

type Asset struct {
	Symbol string  `json:"symbol" validate:"required"`
	Weight float64 `json:"weight"`
	Price  float64 `json:"price"`
}

type PortfolioAnalysis struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	AssetsCount    int     `json:"assets_count"`
}

// PortfolioAnalyzer is the metered portfolio-analysis feature. The
// computation is deterministic over the submitted weights and prices.
type PortfolioAnalyzer struct {
	gateway *FeatureGateway
}

func NewPortfolioAnalyzer(gateway *FeatureGateway) *PortfolioAnalyzer {
	return &PortfolioAnalyzer{gateway: gateway}
}

func (p *PortfolioAnalyzer) Analyze(ctx context.Context, userID uuid.UUID, assets []Asset) (*PortfolioAnalysis, error) {
	result, err := p.gateway.Run(ctx, userID, models.FeaturePortfolio, func(context.Context) (interface{}, error) {
		analysis := analyzePortfolio(assets)
		return &analysis, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*PortfolioAnalysis), nil
}

// analyzePortfolio derives per-asset returns from the normalized price,
// scaled by weight; portfolio return is the weighted sum, volatility the
// population standard deviation of the per-asset returns.
func analyzePortfolio(assets []Asset) PortfolioAnalysis {
	returns := make([]float64, len(assets))
	var expectedReturn float64
	for i, asset := range assets {
		returns[i] = asset.Price / 1000.0 * (1 + asset.Weight*0.1)
		expectedReturn += asset.Weight * returns[i]
	}

	var mean float64
	if len(returns) > 0 {
		for _, r := range returns {
			mean += r
		}
		mean /= float64(len(returns))
	}

	var variance float64
	if len(returns) > 0 {
		for _, r := range returns {
			variance += (r - mean) * (r - mean)
		}
		variance /= float64(len(returns))
	}
	volatility := math.Sqrt(variance)

	sharpe := 0.0
	if volatility > 0 {
		sharpe = expectedReturn / volatility
	}

	return PortfolioAnalysis{
		ExpectedReturn: expectedReturn,
		Volatility:     volatility,
		SharpeRatio:    sharpe,
		AssetsCount:    len(assets),
	}
}
