package model

import "testing"

func TestIsKnownTracker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		domain string
		want   bool
	}{
		{domain: "google-analytics.com", want: true},
		{domain: "www.googletagmanager.com", want: true},
		{domain: "connect.facebook.net", want: true},
		{domain: "static.hotjar.com", want: true},
		{domain: "example.com", want: false},
		{domain: "jsdelivr.net", want: false},
	}

	for _, tt := range tests {
		if got := IsKnownTracker(tt.domain); got != tt.want {
			t.Errorf("IsKnownTracker(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}

func TestKnownTrackersIsCopy(t *testing.T) {
	t.Parallel()

	list := KnownTrackers()
	list[0] = "mutated"
	if KnownTrackers()[0] == "mutated" {
		t.Error("KnownTrackers returned the internal slice")
	}
}

func TestCategorizeAPI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		api  string
		want APICategory
	}{
		{api: "navigator.userAgent", want: APICategoryNavigator},
		{api: "navigator.platform", want: APICategoryNavigator},
		{api: "navigator.vendor", want: APICategoryNavigator},
		{api: "navigator.appVersion", want: APICategoryNavigator},
		{api: "screen.width", want: APICategoryScreen},
		{api: "window.innerWidth", want: APICategoryScreen},
		{api: "window.outerHeight", want: APICategoryScreen},
		{api: "navigator.hardwareConcurrency", want: APICategoryHardware},
		{api: "navigator.maxTouchPoints", want: APICategoryHardware},
		// Matching is case-sensitive, so deviceMemory is not Hardware.
		{api: "navigator.deviceMemory", want: APICategoryOther},
		{api: "getTimezoneOffset", want: APICategoryTime},
		{api: "Intl.DateTimeFormat", want: APICategoryTime},
		{api: "toTimeString", want: APICategoryTime},
		{api: "navigator.getBattery", want: APICategoryOther},
		{api: "WebGLRenderingContext", want: APICategoryOther},
	}

	for _, tt := range tests {
		if got := CategorizeAPI(tt.api); got != tt.want {
			t.Errorf("CategorizeAPI(%q) = %q, want %q", tt.api, got, tt.want)
		}
	}
}

func TestCategorizeAPIs(t *testing.T) {
	t.Parallel()

	groups := CategorizeAPIs([]string{"getTimezoneOffset", "navigator.userAgent", "screen.width", "navigator.platform"})
	if len(groups) != 3 {
		t.Fatalf("expected 3 non-empty groups, got %d: %+v", len(groups), groups)
	}
	if groups[0].Category != APICategoryNavigator || len(groups[0].APIs) != 2 {
		t.Errorf("unexpected first group: %+v", groups[0])
	}
	if groups[0].APIs[0] != "navigator.userAgent" {
		t.Errorf("input order not kept: %v", groups[0].APIs)
	}
	if groups[1].Category != APICategoryScreen {
		t.Errorf("unexpected second group: %+v", groups[1])
	}
	if groups[2].Category != APICategoryTime {
		t.Errorf("unexpected third group: %+v", groups[2])
	}

	if got := CategorizeAPIs(nil); len(got) != 0 {
		t.Errorf("expected no groups for empty input, got %+v", got)
	}
}
