package cache

import "strings"

// ExtractTopic derives a coarse topic string from a question. It takes the
// text after the last occurrence of the marker "on ", trimmed and
// lower-cased. When that yields the whole question (marker absent), it
// retries with "about ". When neither marker is present the topic is the
// entire trimmed, lower-cased question.
//
// Caveat: the fixed markers are a naive heuristic. A question containing
// neither marker, or containing one mid-phrase ("turn on the light"),
// yields a topic that may be the whole question or an unrelated fragment.
// The similarity pre-filter inherits this weakness.
func ExtractTopic(question string) string {
	topic := tailAfter(question, "on ")
	if topic == strings.ToLower(question) { // "on " was not found
		topic = tailAfter(question, "about ")
	}
	return topic
}

// tailAfter returns the trimmed, lower-cased text after the last occurrence
// of marker, or the whole trimmed, lower-cased string when marker is absent.
func tailAfter(s, marker string) string {
	if i := strings.LastIndex(s, marker); i >= 0 {
		s = s[i+len(marker):]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
