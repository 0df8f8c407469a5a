package cli

import (
	"testing"
)

func FuzzParseDate(f *testing.F) {
	f.Add("2025-06-01T12:00:00Z")
	f.Add("")
	f.Add("not-a-date")
	f.Add("2025-06-01")

	f.Fuzz(func(t *testing.T, s string) {
		// Should not panic
		parseDate(s)
	})
}
