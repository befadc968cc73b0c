package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasePredictTruncatesAndSetsTop(t *testing.T) {
	c := &fakeClassifier{
		labels: []string{"beagle", "pug", "corgi"},
		ranked: RankedList{
			{Label: "beagle", Confidence: 0.7},
			{Label: "pug", Confidence: 0.2},
			{Label: "corgi", Confidence: 0.1},
		},
	}

	result, err := NewBase(c).Predict(testImage(), 2)
	require.NoError(t, err)

	require.Len(t, result.Ranked, 2)
	assert.Equal(t, Prediction{Label: "beagle", Confidence: 0.7}, result.Top)
	assert.Equal(t, result.Ranked[0], result.Top)
	assert.Equal(t, 3, result.ClassCount)
}

func TestBasePredictEmptyOutputUsesSentinel(t *testing.T) {
	c := &fakeClassifier{labels: []string{"beagle"}}

	result, err := NewBase(c).Predict(testImage(), 5)
	require.NoError(t, err)

	assert.Empty(t, result.Ranked)
	assert.Equal(t, Unknown, result.Top)
}

func TestBasePredictPropagatesClassifierError(t *testing.T) {
	c := &fakeClassifier{classifyErr: errFakeInference}

	_, err := NewBase(c).Predict(testImage(), 5)
	assert.ErrorIs(t, err, errFakeInference)
}
