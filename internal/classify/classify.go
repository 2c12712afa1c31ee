package classify

import "strings"

// Event types emitted by the browser trackers.
const (
	EventPageView          = "gtm.pageView"
	EventFormSubmit        = "gtm.formSubmit"
	EventThankYouPage      = "gtm.thankYouPage"
	EventConversion        = "gtm.conversion"
	EventButtonClick       = "gtm.buttonClick"
	EventValidationFailure = "gtm.formValidationFailure"
	EventHeartbeat         = "gtm.heartbeat"
)

// testKeywords flags lead payloads coming from demo or QA traffic.
// Matching is content-based: any string value in the payload counts,
// not just well-known fields like "name" or "email".
var testKeywords = []string{"test", "demo", "sample", "example", "fake", "dummy"}

// formMarkers indicate a conversion event that duplicates a form
// submission already counted through the thank-you flow. A conversion
// carrying any of them is dropped entirely.
var formMarkers = []string{"formId", "formClass", "formType", "isFormSubmission"}

// Delta is the set of counter increments one event produces.
type Delta struct {
	Visitors           int
	PageViews          int
	FormSubmissions    int
	ButtonClicks       int
	ValidationFailures int
	Leads              int
	TestLeads          int
	Conversions        int
}

// IsZero reports whether the delta changes no counters.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// classifiers maps each known event type to its counting rule.
// Unknown event types fall through to a zero delta.
var classifiers = map[string]func(data map[string]any) Delta{
	EventPageView: func(map[string]any) Delta {
		return Delta{Visitors: 1, PageViews: 1}
	},
	// Form submits are counted as interactions only. Lead counting is
	// deferred to the thank-you confirmation so submissions that fail
	// validation or never reach a success page are not over-counted.
	EventFormSubmit: func(map[string]any) Delta {
		return Delta{FormSubmissions: 1}
	},
	EventThankYouPage: func(data map[string]any) Delta {
		if IsTestData(data) {
			return Delta{TestLeads: 1}
		}
		return Delta{Leads: 1}
	},
	EventConversion: func(data map[string]any) Delta {
		if hasFormMarker(data) {
			// Duplicate signal of a form submission. Skip entirely.
			return Delta{}
		}
		if IsTestData(data) {
			return Delta{TestLeads: 1, Conversions: 1}
		}
		return Delta{Leads: 1, Conversions: 1}
	},
	EventButtonClick: func(map[string]any) Delta {
		return Delta{ButtonClicks: 1}
	},
	EventValidationFailure: func(map[string]any) Delta {
		return Delta{ValidationFailures: 1}
	},
	EventHeartbeat: func(map[string]any) Delta {
		return Delta{}
	},
}

// Classify returns the counter increments for one inbound event.
// Pure function of its input; unknown event types change nothing.
func Classify(eventType string, data map[string]any) Delta {
	fn, ok := classifiers[eventType]
	if !ok {
		return Delta{}
	}
	return fn(data)
}

// Known reports whether eventType is one the classifier understands.
func Known(eventType string) bool {
	_, ok := classifiers[eventType]
	return ok
}

// IsTestData reports whether any string value in the payload, at any
// nesting depth, contains a test keyword (case-insensitive, trimmed).
func IsTestData(data map[string]any) bool {
	for _, value := range data {
		if containsTestValue(value) {
			return true
		}
	}
	return false
}

func containsTestValue(value any) bool {
	switch v := value.(type) {
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		for _, keyword := range testKeywords {
			if strings.Contains(s, keyword) {
				return true
			}
		}
	case map[string]any:
		return IsTestData(v)
	case []any:
		for _, item := range v {
			if containsTestValue(item) {
				return true
			}
		}
	}
	return false
}

func hasFormMarker(data map[string]any) bool {
	for _, marker := range formMarkers {
		if _, ok := data[marker]; ok {
			return true
		}
	}
	return false
}
