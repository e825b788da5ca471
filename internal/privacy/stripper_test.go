package privacy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripPrivateTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no tags",
			input:    "I had a test",
			expected: "I had a test",
		},
		{
			name:     "single private tag",
			input:    "I was sad <private>about my friend</private> today",
			expected: "I was sad  today",
		},
		{
			name:     "multiple private tags",
			input:    "A <private>x</private> and <private>y</private> B",
			expected: "A  and  B",
		},
		{
			name:     "multiline private tag",
			input:    "Hello <private>\nmultiline\nsecret\n</private> world",
			expected: "Hello  world",
		},
		{
			name:     "entirely private",
			input:    "<private>everything is secret</private>",
			expected: "",
		},
		{
			name:     "unmatched opening tag",
			input:    "Hello <private>unclosed",
			expected: "Hello <private>unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripPrivateTags(tt.input))
		})
	}
}

func TestIsEntirelyPrivate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "entirely private", input: "<private>secret</private>", expected: true},
		{name: "private with whitespace", input: "  <private>secret</private>  \n", expected: true},
		{name: "empty", input: "", expected: true},
		{name: "mixed", input: "school <private>secret</private>", expected: false},
		{name: "plain", input: "my test", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsEntirelyPrivate(tt.input))
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "trims", input: "  homework  ", expected: "homework"},
		{name: "collapses whitespace", input: "my\n\n  big   test", expected: "my big test"},
		{name: "drops private segment", input: "school <private>bully</private> stuff", expected: "school stuff"},
		{name: "drops control characters", input: "hi\x00there\x07", expected: "hithere"},
		{name: "entirely private", input: "<private>x</private>", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input))
		})
	}
}

func TestCleanTruncates(t *testing.T) {
	long := strings.Repeat("é", MaxTextRunes+50)
	assert.Len(t, []rune(Clean(long)), MaxTextRunes)
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "abc", Truncate("abc", 5))
}
