package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTopic(t *testing.T) {
	assert.Equal(t, "go concurrency", NormalizeTopic("  Go Concurrency "))
	assert.Equal(t, NormalizeTopic("LINEAR ALGEBRA"), NormalizeTopic("linear algebra"))
}

func TestCoercePriority(t *testing.T) {
	assert.Equal(t, GapPriorityHigh, CoercePriority(" HIGH "))
	assert.Equal(t, GapPriorityLow, CoercePriority("low"))
	assert.Equal(t, GapPriorityMedium, CoercePriority("medium"))
	assert.Equal(t, GapPriorityMedium, CoercePriority("urgent"))
	assert.Equal(t, GapPriorityMedium, CoercePriority(""))
}

func TestDifficultyValid(t *testing.T) {
	assert.True(t, DifficultyEasy.Valid())
	assert.True(t, DifficultyMedium.Valid())
	assert.True(t, DifficultyHard.Valid())
	assert.False(t, Difficulty("expert").Valid())
	assert.False(t, Difficulty("").Valid())
}

func TestQuestionOptionList(t *testing.T) {
	q := &Question{Options: []byte(`["a","b","c"]`)}
	assert.Equal(t, []string{"a", "b", "c"}, q.OptionList())

	descriptive := &Question{}
	assert.Nil(t, descriptive.OptionList())

	corrupt := &Question{Options: []byte(`{`)}
	assert.Nil(t, corrupt.OptionList())
}
