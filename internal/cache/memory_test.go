package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-agent-go/internal/types"
)

func analysisResult(id string) *types.AnalysisResult {
	return &types.AnalysisResult{
		CandidateID: id,
		Label:       "Candidate " + id,
		Fields:      types.StructuredFields{Name: "Candidate " + id},
	}
}

func TestMemoryCachePutGet(t *testing.T) {
	c := NewMemoryCache(4)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", analysisResult("1")))

	got, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", got.CandidateID)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(4)

	got, ok, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", analysisResult("1")))
	require.NoError(t, c.Put(ctx, "k2", analysisResult("2")))

	// 访问k1使其成为最近使用，k2成为淘汰候选
	_, ok, _ := c.Get(ctx, "k1")
	require.True(t, ok)

	require.NoError(t, c.Put(ctx, "k3", analysisResult("3")))

	_, ok, _ = c.Get(ctx, "k2")
	assert.False(t, ok, "最久未使用的条目应被淘汰")
	_, ok, _ = c.Get(ctx, "k1")
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "k3")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCacheOverwrite(t *testing.T) {
	c := NewMemoryCache(4)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", analysisResult("old")))
	require.NoError(t, c.Put(ctx, "k1", analysisResult("new")))

	got, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.CandidateID)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheReturnsCopy(t *testing.T) {
	c := NewMemoryCache(4)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", analysisResult("1")))

	first, _, _ := c.Get(ctx, "k1")
	first.Label = "mutated"

	second, _, _ := c.Get(ctx, "k1")
	assert.Equal(t, "Candidate 1", second.Label, "调用方修改返回值不应污染缓存")
}

func TestMemoryCacheDefaultCapacity(t *testing.T) {
	c := NewMemoryCache(0)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		require.NoError(t, c.Put(ctx, fmt.Sprintf("k%d", i), analysisResult(fmt.Sprintf("%d", i))))
	}
	assert.Equal(t, 128, c.Len())
}
