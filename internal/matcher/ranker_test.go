package matcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-agent-go/internal/types"
)

func candidateWith(id string, maxScore, avgScore float64) Candidate {
	return Candidate{
		ID:    id,
		Match: types.MatchResult{MaxScore: maxScore, AvgScore: avgScore},
	}
}

func TestRankDescendingByOverallRating(t *testing.T) {
	candidates := []Candidate{
		candidateWith("a", 0.9, 0.5), // 0.6*0.9 + 0.4*0.5 = 0.74
		candidateWith("b", 0.8, 0.8), // 0.6*0.8 + 0.4*0.8 = 0.80
		candidateWith("c", 0.5, 0.5), // 0.50
	}

	rankings, err := Rank(candidates)
	require.NoError(t, err)
	require.Len(t, rankings, 3)

	assert.Equal(t, "b", rankings[0].CandidateID)
	assert.Equal(t, "a", rankings[1].CandidateID)
	assert.Equal(t, "c", rankings[2].CandidateID)

	assert.InDelta(t, 0.80, rankings[0].OverallRating, 1e-9)
	assert.InDelta(t, 0.74, rankings[1].OverallRating, 1e-9)
	assert.InDelta(t, 0.50, rankings[2].OverallRating, 1e-9)
}

func TestRankStableOnTies(t *testing.T) {
	// 评分在容差内相等的候选人保持输入相对顺序
	candidates := []Candidate{
		candidateWith("first", 0.9, 0.5),
		candidateWith("winner", 0.8, 0.8),
		candidateWith("second", 0.9, 0.5),
	}

	rankings, err := Rank(candidates)
	require.NoError(t, err)

	assert.Equal(t, "winner", rankings[0].CandidateID)
	assert.Equal(t, "first", rankings[1].CandidateID)
	assert.Equal(t, "second", rankings[2].CandidateID)
}

func TestRankEmptyInput(t *testing.T) {
	_, err := Rank(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrEmptyInput))
}

func TestRankSingleCandidate(t *testing.T) {
	rankings, err := Rank([]Candidate{candidateWith("only", 0.7, 0.6)})
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.InDelta(t, 0.6*0.7+0.4*0.6, rankings[0].OverallRating, 1e-9)
}

func TestRankPreservesFields(t *testing.T) {
	years := 5
	candidates := []Candidate{{
		ID: "a",
		Fields: types.StructuredFields{
			Name:            "Jane Doe",
			Email:           "jane@example.com",
			ExperienceYears: &years,
		},
		Match: types.MatchResult{MaxScore: 0.9, AvgScore: 0.7, PerChunkScores: []float64{0.9, 0.5}},
	}}

	rankings, err := Rank(candidates)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", rankings[0].Fields.Name)
	assert.Equal(t, []float64{0.9, 0.5}, rankings[0].Match.PerChunkScores)
}

func TestBestReturnsTieSet(t *testing.T) {
	rankings, err := Rank([]Candidate{
		candidateWith("a", 0.9, 0.5),
		candidateWith("b", 0.9, 0.5),
		candidateWith("c", 0.5, 0.5),
	})
	require.NoError(t, err)

	best := Best(rankings)
	require.Len(t, best, 2)
	assert.Equal(t, "a", best[0].CandidateID)
	assert.Equal(t, "b", best[1].CandidateID)
}

func TestBestEmptyInput(t *testing.T) {
	assert.Nil(t, Best(nil))
}

func TestOverallRatingWeights(t *testing.T) {
	rating := OverallRating(types.MatchResult{MaxScore: 1.0, AvgScore: 0.0})
	assert.InDelta(t, 0.6, rating, 1e-9)

	rating = OverallRating(types.MatchResult{MaxScore: 0.0, AvgScore: 1.0})
	assert.InDelta(t, 0.4, rating, 1e-9)
}
