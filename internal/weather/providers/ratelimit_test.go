package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	searches, forecasts int
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) Search(context.Context, string) ([]byte, error) {
	c.searches++
	return []byte("[]"), nil
}

func (c *countingProvider) Forecast(context.Context, string, int) ([]byte, error) {
	c.forecasts++
	return []byte("{}"), nil
}

func TestRateLimitedProvider_Forwards(t *testing.T) {
	inner := &countingProvider{}
	p := NewRateLimitedProvider(inner, 100, 2)

	assert.Equal(t, "counting", p.Name())

	_, err := p.Search(context.Background(), "a")
	require.NoError(t, err)
	_, err = p.Forecast(context.Background(), "a", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.searches)
	assert.Equal(t, 1, inner.forecasts)
}

func TestRateLimitedProvider_CanceledWait(t *testing.T) {
	inner := &countingProvider{}
	// One token per hour: the second call cannot be served before the deadline.
	p := NewRateLimitedProvider(inner, 1.0/3600, 1)

	_, err := p.Search(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Forecast(ctx, "a", 3)
	require.Error(t, err)
	assert.Equal(t, 0, inner.forecasts)
}
