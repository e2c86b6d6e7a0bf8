package style

import (
	"strings"
	"testing"
)

func TestStylesRender(t *testing.T) {
	styles := map[string]func(...string) string{
		"Success": Success.Render,
		"Warning": Warning.Render,
		"Error":   Error.Render,
		"Info":    Info.Render,
		"Dim":     Dim.Render,
		"Bold":    Bold.Render,
	}

	for name, render := range styles {
		if got := render("test"); !strings.Contains(got, "test") {
			t.Errorf("%s.Render dropped its input: %q", name, got)
		}
	}
}

func TestPrefixes(t *testing.T) {
	for name, prefix := range map[string]string{
		"SuccessPrefix": SuccessPrefix,
		"WarningPrefix": WarningPrefix,
		"ErrorPrefix":   ErrorPrefix,
	} {
		if prefix == "" {
			t.Errorf("%s must not be empty", name)
		}
	}
}
