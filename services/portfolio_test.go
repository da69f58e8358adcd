package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finflow/models"
)

func TestAnalyzePortfolioSingleAsset(t *testing.T) {
	analysis := analyzePortfolio([]Asset{
		{Symbol: "AAPL", Weight: 1.0, Price: 150},
	})

	// return = 150/1000 * (1 + 1.0*0.1) = 0.165
	assert.InDelta(t, 0.165, analysis.ExpectedReturn, 1e-9)
	// One asset has no spread, so volatility and sharpe collapse to zero.
	assert.Zero(t, analysis.Volatility)
	assert.Zero(t, analysis.SharpeRatio)
	assert.Equal(t, 1, analysis.AssetsCount)
}

func TestAnalyzePortfolioTwoAssets(t *testing.T) {
	assets := []Asset{
		{Symbol: "AAPL", Weight: 0.6, Price: 150},
		{Symbol: "GOOG", Weight: 0.4, Price: 2800},
	}
	analysis := analyzePortfolio(assets)

	r1 := 150.0 / 1000.0 * (1 + 0.6*0.1)
	r2 := 2800.0 / 1000.0 * (1 + 0.4*0.1)
	expected := 0.6*r1 + 0.4*r2
	mean := (r1 + r2) / 2
	variance := ((r1-mean)*(r1-mean) + (r2-mean)*(r2-mean)) / 2
	volatility := math.Sqrt(variance)

	assert.InDelta(t, expected, analysis.ExpectedReturn, 1e-9)
	assert.InDelta(t, volatility, analysis.Volatility, 1e-9)
	assert.InDelta(t, expected/volatility, analysis.SharpeRatio, 1e-9)
	assert.Equal(t, 2, analysis.AssetsCount)
}

func TestAnalyzePortfolioDeterministic(t *testing.T) {
	assets := []Asset{
		{Symbol: "AAPL", Weight: 0.5, Price: 150},
		{Symbol: "MSFT", Weight: 0.5, Price: 420},
	}
	first := analyzePortfolio(assets)
	second := analyzePortfolio(assets)
	assert.Equal(t, first, second)
}

func TestPortfolioAnalyzeMetersUsage(t *testing.T) {
	gateway, svc, user := newTestGateway(t)
	analyzer := NewPortfolioAnalyzer(gateway)
	ctx := context.Background()

	analysis, err := analyzer.Analyze(ctx, user.ID, []Asset{
		{Symbol: "AAPL", Weight: 1.0, Price: 150},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.AssetsCount)

	logs, err := svc.ListUsage(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.FeaturePortfolio, logs[0].FeatureName)
}

func TestPortfolioAnalyzeOverLimit(t *testing.T) {
	gateway, svc, user := newTestGateway(t)
	analyzer := NewPortfolioAnalyzer(gateway)
	ctx := context.Background()

	for i := 0; i < models.TierCatalog[models.TierFree].PortfolioLimit; i++ {
		require.NoError(t, svc.LogUsage(ctx, user.ID, models.FeaturePortfolio))
	}

	_, err := analyzer.Analyze(ctx, user.ID, []Asset{{Symbol: "AAPL", Weight: 1, Price: 150}})
	assert.ErrorIs(t, err, ErrUsageLimitExceeded)
}
