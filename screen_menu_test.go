package main

import "testing"

func TestUpdateScreenShowsReportedVersion(t *testing.T) {
	a := testApp()
	defer a.overlay.Shutdown()

	// Nothing reported yet: latest falls back to the installed version.
	s := newUpdateScreen(a)
	if s.latestVer != s.currentVer {
		t.Errorf("without a report latest = %q, want current %q", s.latestVer, s.currentVer)
	}

	a.SetLatestVersion("9.9.9")
	if got := a.LatestVersion(); got != "9.9.9" {
		t.Fatalf("LatestVersion = %q, want 9.9.9", got)
	}
	s = newUpdateScreen(a)
	if s.latestVer != "9.9.9" {
		t.Errorf("reported version should reach the screen, got %q", s.latestVer)
	}
}
