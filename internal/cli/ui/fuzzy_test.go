package ui

import (
	"reflect"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1       string
		s2       string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"DP051", "DP0501", 1},
		{"DP0501", "DP0502", 1},
		{"naïve", "naive", 1},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			result := LevenshteinDistance(tt.s1, tt.s2)
			if result != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d; want %d", tt.s1, tt.s2, result, tt.expected)
			}
		})
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"DP0101", "DP0304", "DP0501", "DP0502", "default-value-type", "callback-signature"}

	tests := []struct {
		name     string
		target   string
		opts     *FuzzyMatchOptions
		expected []string
	}{
		{
			name:     "exact match first",
			target:   "DP0501",
			opts:     nil,
			expected: []string{"DP0501", "DP0101", "DP0502"},
		},
		{
			name:     "missing digit",
			target:   "DP051",
			opts:     nil,
			expected: []string{"DP0501", "DP0101", "DP0502"},
		},
		{
			name:     "case insensitive",
			target:   "dp0304",
			opts:     &FuzzyMatchOptions{MaxDistance: 1},
			expected: []string{"DP0304"},
		},
		{
			name:     "case sensitive",
			target:   "dp0304",
			opts:     &FuzzyMatchOptions{MaxDistance: 1, CaseSensitive: true},
			expected: []string{},
		},
		{
			name:     "misspelled slug",
			target:   "default-valu-type",
			opts:     nil,
			expected: []string{"default-value-type"},
		},
		{
			name:     "no match too far",
			target:   "XYZ",
			opts:     nil,
			expected: []string{},
		},
		{
			name:     "max suggestions limit",
			target:   "DP0500",
			opts:     &FuzzyMatchOptions{MaxSuggestions: 1},
			expected: []string{"DP0501"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindSimilar(tt.target, candidates, tt.opts)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("FindSimilar(%q) = %v; want %v", tt.target, result, tt.expected)
			}
		})
	}
}

func TestFindSimilarDoesNotModifyOptions(t *testing.T) {
	opts := &FuzzyMatchOptions{}
	FindSimilar("DP0501", []string{"DP0501"}, opts)

	if opts.MaxDistance != 0 || opts.MaxSuggestions != 0 {
		t.Errorf("Options were modified: %+v", opts)
	}
}

func TestFindSimilarEmptyCandidates(t *testing.T) {
	result := FindSimilar("test", []string{}, nil)
	if len(result) != 0 {
		t.Errorf("Expected empty result for empty candidates, got %v", result)
	}
}

func TestFindSimilarEmptyTarget(t *testing.T) {
	result := FindSimilar("", []string{"AB", "XYZW"}, &FuzzyMatchOptions{MaxDistance: 2})

	if !reflect.DeepEqual(result, []string{"AB"}) {
		t.Errorf("Expected only the short candidate, got %v", result)
	}
}
