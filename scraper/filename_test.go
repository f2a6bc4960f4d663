package scraper

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var safeName = regexp.MustCompile(`^[A-Za-z0-9 _.-]*$`)

func TestSanitize(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"Week 1", "Week 1"},
		{"Lecture 3: Sorting / Searching", "Lecture 3 Sorting  Searching"},
		{"../../etc/passwd", "....etcpasswd"},
		{"report.final-v2_draft.pdf", "report.final-v2_draft.pdf"},
		{"trailing   ", "trailing"},
		{"tabs\t\n", "tabs"},
		{"Übung 1", "bung 1"},
		{"", ""},
		{"???", ""},
		{".", "_"},
		{"..", "_"},
		{"/..", "_"},
	}

	for _, test := range tests {
		result := Sanitize(test.raw)
		if result != test.expected {
			t.Errorf("Sanitize(%q) = %q, expected %q", test.raw, result, test.expected)
		}
	}
}

func TestSanitizeProperties(t *testing.T) {
	inputs := []string{
		"Week 1 ", "  leading", "a<b>c:d\"e|f?g*h", "日本語 notes", "tab\tseparated",
		"..", "x/../y", "name. ", "emoji 🎓 slides", "C:\\Windows\\system32", "\x00null",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "sanitize must be idempotent for %q", in)
		assert.Regexp(t, safeName, once)
		if len(once) > 0 {
			assert.NotEqual(t, byte(' '), once[len(once)-1], "trailing whitespace for %q", in)
		}
		assert.NotEqual(t, ".", once)
		assert.NotEqual(t, "..", once)
	}
}
