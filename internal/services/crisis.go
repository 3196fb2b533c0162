package services

import "strings"

// crisisPhrases trigger the crisis reply. Matching is case-insensitive
// substring containment, so "SUICIDE." and "self-harming" both match.
var crisisPhrases = []string{
	"suicide",
	"kill myself",
	"end it all",
	"self-harm",
	"hurt myself",
	"no point living",
}

// DetectCrisis reports whether message contains any crisis phrase.
func DetectCrisis(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range crisisPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// MatchedCrisisPhrases returns the crisis phrases found in message, in list
// order.
func MatchedCrisisPhrases(message string) []string {
	lower := strings.ToLower(message)
	var matched []string
	for _, phrase := range crisisPhrases {
		if strings.Contains(lower, phrase) {
			matched = append(matched, phrase)
		}
	}
	return matched
}
