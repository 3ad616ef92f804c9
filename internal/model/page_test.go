package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeStatistics(t *testing.T) {
	tests := []struct {
		name  string
		pages []PageRecord
		want  Statistics
	}{
		{
			name:  "no pages",
			pages: nil,
			want:  Statistics{},
		},
		{
			name: "three pages",
			pages: []PageRecord{
				{Index: 1, WordCount: 10},
				{Index: 2, WordCount: 20},
				{Index: 3, WordCount: 30},
			},
			want: Statistics{TotalPages: 3, TotalWords: 60, AverageWordsPerPage: 20.0},
		},
		{
			name:  "single page",
			pages: []PageRecord{{Index: 4, WordCount: 7}},
			want:  Statistics{TotalPages: 1, TotalWords: 7, AverageWordsPerPage: 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ComputeStatistics(tt.pages))
		})
	}
}
