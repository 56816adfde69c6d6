package pipeline

import "strings"

// genericPhrases is the fixed boilerplate list.  A candidate whose matched
// text contains any of these (case-insensitive) is suppressed regardless of
// which adapter produced it.
var genericPhrases = []string{
	"lorem ipsum",
	"all rights reserved",
	"terms and conditions",
	"terms of service",
	"privacy policy",
	"click here",
	"subscribe to our newsletter",
	"frequently asked questions",
	"cookie policy",
	"unsubscribe at any time",
}

// commonWords are long words everyday enough that flagging them as complex
// would be noise.  Lookup is lowercase.
var commonWords = map[string]struct{}{
	"business":    {},
	"together":    {},
	"children":    {},
	"different":   {},
	"important":   {},
	"sometimes":   {},
	"something":   {},
	"everything":  {},
	"everyone":    {},
	"questions":   {},
	"community":   {},
	"government":  {},
	"information": {},
	"understand":  {},
	"beautiful":   {},
	"themselves":  {},
	"absolutely":  {},
	"interesting": {},
	"remember":    {},
	"yesterday":   {},
	"tomorrow":    {},
}

// containsGenericPhrase reports whether text holds any boilerplate phrase.
func containsGenericPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range genericPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// isComplexWordWorthy gates complex-word candidates: the word must be longer
// than eight characters and not on the common-word exception list.
func isComplexWordWorthy(word string) bool {
	if len(word) <= 8 {
		return false
	}
	_, common := commonWords[strings.ToLower(word)]
	return !common
}

// isFactualWorthy gates factual-claim candidates on claim type and adapter
// confidence.
func isFactualWorthy(claimType, confidence string) bool {
	switch claimType {
	case "statistic", "date":
		return true
	}
	return confidence == "high"
}
