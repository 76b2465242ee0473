package model

import "strings"

// knownTrackers are domains of widely deployed analytics, advertising and
// session-recording services.
var knownTrackers = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"doubleclick.net",
	"facebook.com",
	"facebook.net",
	"fbcdn.net",
	"twitter.com",
	"twimg.com",
	"amazon-adsystem.com",
	"googlesyndication.com",
	"hotjar.com",
	"mouseflow.com",
	"crazyegg.com",
	"mixpanel.com",
	"segment.com",
	"amplitude.com",
}

// KnownTrackers returns a copy of the known tracker domain list.
func KnownTrackers() []string {
	return cloneStrings(knownTrackers)
}

// IsKnownTracker reports whether domain contains one of the known tracker
// domains as a substring.
func IsKnownTracker(domain string) bool {
	for _, tracker := range knownTrackers {
		if strings.Contains(domain, tracker) {
			return true
		}
	}
	return false
}

// APICategory groups fingerprinting API names for display.
type APICategory string

// API display categories in presentation order.
const (
	APICategoryNavigator APICategory = "Navigator Info"
	APICategoryScreen    APICategory = "Screen/Display"
	APICategoryHardware  APICategory = "Hardware"
	APICategoryTime      APICategory = "Time/Locale"
	APICategoryOther     APICategory = "Other"
)

// APICategories returns the display categories in presentation order.
func APICategories() []APICategory {
	return []APICategory{
		APICategoryNavigator,
		APICategoryScreen,
		APICategoryHardware,
		APICategoryTime,
		APICategoryOther,
	}
}

// CategorizeAPI returns the display category of a fingerprinting API name.
// The first matching rule wins and matching is case-sensitive.
func CategorizeAPI(api string) APICategory {
	switch {
	case containsAny(api, "navigator.user", "navigator.platform", "navigator.vendor", "navigator.app"):
		return APICategoryNavigator
	case containsAny(api, "screen", "Width", "Height"):
		return APICategoryScreen
	case containsAny(api, "hardware", "memory", "Touch"):
		return APICategoryHardware
	case containsAny(api, "Time", "timezone", "Intl"):
		return APICategoryTime
	default:
		return APICategoryOther
	}
}

// APIGroup is a non-empty display category with its API names.
type APIGroup struct {
	Category APICategory
	APIs     []string
}

// CategorizeAPIs groups apis by display category. Empty categories are
// omitted and input order is kept within each group.
func CategorizeAPIs(apis []string) []APIGroup {
	buckets := make(map[APICategory][]string)
	for _, api := range apis {
		c := CategorizeAPI(api)
		buckets[c] = append(buckets[c], api)
	}

	var groups []APIGroup
	for _, c := range APICategories() {
		if len(buckets[c]) > 0 {
			groups = append(groups, APIGroup{Category: c, APIs: buckets[c]})
		}
	}
	return groups
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
