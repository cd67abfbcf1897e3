package shared

import "testing"

func TestOpenBrowserUnsupportedPlatform(t *testing.T) {
	orig := getRuntime
	defer func() { getRuntime = orig }()

	getRuntime = func() string { return "plan9" }
	if err := OpenBrowser("https://example.com"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}
