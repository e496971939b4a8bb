package strings

import (
	"testing"
)

func TestTruncateLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short string unchanged", input: "Install Firefox", maxLen: 20, expected: "Install Firefox"},
		{name: "exact length unchanged", input: "lab-01", maxLen: 6, expected: "lab-01"},
		{name: "long string truncated", input: "abcdefghijkl", maxLen: 8, expected: "abcde..."},
		{name: "script body flattened", input: "#!/bin/sh\n\trm -rf /tmp/cache\n", maxLen: 60, expected: "#!/bin/sh rm -rf /tmp/cache"},
		{name: "multibyte runes kept whole", input: "ééééééééé", maxLen: 5, expected: "éé..."},
		{name: "tiny max clamped", input: "abcdefgh", maxLen: 1, expected: "a..."},
		{name: "empty", input: "", maxLen: 10, expected: ""},
		{name: "whitespace only", input: " \n\t ", maxLen: 10, expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateLine(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("TruncateLine(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}
