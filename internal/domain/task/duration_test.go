package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateDurationHeuristic(t *testing.T) {
	cases := []struct {
		title string
		want  int
	}{
		{"Reply to email", 5},
		{"Call the dentist", 5},
		{"Review pull request", 15},
		{"Schedule team sync", 15},
		{"Write blog draft", 30},
		{"Plan quarterly roadmap", 60},
		{"Research vector databases", 60},
		{"Refactor auth module", 120},
		{"Implement billing export", 120},
		{"", 30},
		{"Mysterious chore", 30},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, EstimateDurationHeuristic(tc.title))
		})
	}
}

func TestHeuristicCaseInsensitive(t *testing.T) {
	assert.Equal(t, 5, EstimateDurationHeuristic("REPLY to the board"))
}

func TestHeuristicAlwaysValidBucket(t *testing.T) {
	titles := []string{"Reply", "Review", "Write", "Plan", "Refactor", "whatever"}
	for _, title := range titles {
		assert.True(t, IsValidDuration(EstimateDurationHeuristic(title)), title)
	}
}
