package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTopic(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{
			name:     "on marker",
			question: "Tell me about the lecture on photosynthesis",
			want:     "photosynthesis",
		},
		{
			name:     "about marker",
			question: "What do you know about black holes",
			want:     "black holes",
		},
		{
			name:     "last marker wins",
			question: "Notes on chapters on thermodynamics",
			want:     "thermodynamics",
		},
		{
			name:     "no marker returns whole question",
			question: "Explain recursion",
			want:     "explain recursion",
		},
		{
			name:     "empty question",
			question: "",
			want:     "",
		},
		{
			name:     "marker mid-word is not matched alone",
			question: "What is a proton",
			want:     "what is a proton",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTopic(tt.question))
		})
	}
}

func TestExtractTopicIsIdempotentOnOutput(t *testing.T) {
	// The extracted topic never contains the markers themselves, so
	// re-extracting yields the same string.
	questions := []string{
		"Tell me about the lecture on photosynthesis",
		"What do you know about black holes",
		"Explain recursion",
	}
	for _, q := range questions {
		topic := ExtractTopic(q)
		assert.Equal(t, topic, ExtractTopic(topic))
	}
}
