package resolve

import (
	"log"
	"regexp"
	"strings"
)

// Speech-to-text renders "@" as the spoken word "at" and "." as "dot", and
// tends to insert spaces around "@". These heuristics recover email syntax
// from transcripts before any directory lookup runs.
var (
	spokenAtPattern   = regexp.MustCompile(`(?i) at `)
	spokenDotPattern  = regexp.MustCompile(`(?i) dot `)
	usernameSplit     = regexp.MustCompile(`(?i) at | gmail\.com`)
	gmailTailPattern  = regexp.MustCompile(`(?i)gmail.*`)
	emailAddrPattern  = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanSpeechArtifacts applies the transcript cleanup heuristics in order:
// " at " -> "@", " dot " -> ".", then stray spaces around "@" removed.
func CleanSpeechArtifacts(raw string) string {
	cleaned := raw

	if spokenAtPattern.MatchString(cleaned) {
		cleaned = spokenAtPattern.ReplaceAllString(cleaned, "@")
		log.Printf("Cleaned speech artifact: %q -> %q", raw, cleaned)
	}

	if spokenDotPattern.MatchString(cleaned) {
		cleaned = spokenDotPattern.ReplaceAllString(cleaned, ".")
		log.Printf("Cleaned speech artifact: %q -> %q", raw, cleaned)
	}

	if strings.Contains(cleaned, " @") {
		cleaned = strings.ReplaceAll(cleaned, " @", "@")
		log.Printf("Cleaned space before @: %q -> %q", raw, cleaned)
	}

	if strings.Contains(cleaned, "@ ") {
		cleaned = strings.ReplaceAll(cleaned, "@ ", "@")
		log.Printf("Cleaned space after @: %q -> %q", raw, cleaned)
	}

	return cleaned
}

// DeriveUsername extracts a plausible email local part from a garbled
// recipient reference: the text before the first " at " or " gmail.com",
// with any trailing "gmail..." noise stripped, trimmed and lower-cased.
func DeriveUsername(cleaned string) string {
	username := cleaned

	if usernameSplit.MatchString(cleaned) {
		username = strings.TrimSpace(usernameSplit.Split(cleaned, 2)[0])
	}

	if strings.Contains(strings.ToLower(cleaned), "gmail") {
		username = strings.TrimSpace(gmailTailPattern.ReplaceAllString(strings.ToLower(cleaned), ""))
	}

	return strings.ToLower(strings.TrimSpace(username))
}

// looksLikeEmail is the intentionally loose direct-address heuristic: both
// "@" and "." present, no RFC validation beyond that.
func looksLikeEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

// extractAddresses pulls every email address out of a header value.
func extractAddresses(headerValue string) []string {
	return emailAddrPattern.FindAllString(headerValue, -1)
}
