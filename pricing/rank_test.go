package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectPrice_EmptyInput(t *testing.T) {
	_, ok := SelectPrice(nil)
	assert.False(t, ok)
}

func TestSelectPrice_HighPriorityWins(t *testing.T) {
	cands := []Candidate{
		{Value: 50, Priority: PriorityNormal, ClassHint: "price"},
		{Value: 750, Priority: PriorityHigh},
		{Value: 999, Priority: PriorityHigh},
		{Value: 2000, Priority: PriorityNormal},
	}

	// First high-priority candidate in discovery order, not the largest.
	got, ok := SelectPrice(cands)
	require.True(t, ok)
	assert.Equal(t, 750.0, got)
}

func TestSelectPrice_ClassHintOrder(t *testing.T) {
	// No high-priority candidate; "product" outranks "price" in the hint
	// list even though the price-classed candidate comes first.
	cands := []Candidate{
		{Value: 100, ClassHint: "old-price"},
		{Value: 250, ClassHint: "product-box"},
		{Value: 400, ClassHint: "misc"},
	}

	got, ok := SelectPrice(cands)
	require.True(t, ok)
	assert.Equal(t, 250.0, got)
}

func TestSelectPrice_FrequencyTieBreak(t *testing.T) {
	// No priority or hint signal: the repeated value wins over the maximum.
	cands := []Candidate{
		{Value: 300},
		{Value: 150},
		{Value: 150},
		{Value: 900},
	}

	got, ok := SelectPrice(cands)
	require.True(t, ok)
	assert.Equal(t, 150.0, got)
}

func TestSelectPrice_MaximumFallback(t *testing.T) {
	// All values distinct, no other signal: pick the maximum.
	cands := []Candidate{
		{Value: 12},
		{Value: 870},
		{Value: 45},
	}

	got, ok := SelectPrice(cands)
	require.True(t, ok)
	assert.Equal(t, 870.0, got)
}

func TestSelectPrice_PlausibilityWindow(t *testing.T) {
	// Out-of-window values are dropped before ranking.
	cands := []Candidate{
		{Value: 0.5},
		{Value: 5_000_000},
		{Value: 299, Priority: PriorityHigh},
	}

	got, ok := SelectPrice(cands)
	require.True(t, ok)
	assert.Equal(t, 299.0, got)
}

func TestSelectPrice_LeniencyFallback(t *testing.T) {
	// Nothing survives the window: fall back to the first raw candidate
	// rather than reporting no price at all.
	cands := []Candidate{
		{Value: 0.5},
		{Value: 0.9},
	}

	got, ok := SelectPrice(cands)
	require.True(t, ok)
	assert.Equal(t, 0.5, got)
}

func TestSelectPrice_Deterministic(t *testing.T) {
	cands := []Candidate{
		{Value: 100},
		{Value: 100},
		{Value: 200},
		{Value: 200},
		{Value: 50},
	}

	first, ok := SelectPrice(cands)
	require.True(t, ok)
	for i := 0; i < 50; i++ {
		got, ok := SelectPrice(cands)
		require.True(t, ok)
		assert.Equal(t, first, got, "iteration %d", i)
	}
	// Discovery order breaks the frequency tie.
	assert.Equal(t, 100.0, first)
}
