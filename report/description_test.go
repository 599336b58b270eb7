package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanOSVDescription(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "empty",
			raw:      "",
			expected: "",
		},
		{
			name:     "plain text untouched",
			raw:      "A prototype pollution issue.",
			expected: "A prototype pollution issue.",
		},
		{
			name:     "leading header kept with marker stripped",
			raw:      "# Header\n\nContent\n\n\n\n",
			expected: " Header\n\nContent",
		},
		{
			name:     "boilerplate sections dropped",
			raw:      "Intro text.\n# References\n\n* https://example.com\n",
			expected: "Intro text.",
		},
		{
			name:     "section with code fence kept",
			raw:      "Intro.\n# Proof of Concept\n\n```js\nexploit()\n```\n# Credits\n\nSomeone\n",
			expected: "Intro.\n Proof of Concept\n\n```js\nexploit()\n```",
		},
		{
			name:     "only trailing newlines trimmed",
			raw:      "Content with trailing space \n\n",
			expected: "Content with trailing space ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanOSVDescription(tt.raw))
		})
	}
}
