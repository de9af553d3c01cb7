package debate

import (
	"fmt"
	"regexp"
)

// Language is the detected query language, injected as a response directive
// into every system prompt for the run.
type Language string

const (
	English Language = "English"
	Spanish Language = "Spanish"
)

// Diacritics plus a closed list of high-frequency Spanish function words.
// Words whose accented forms defeat ASCII word boundaries are still counted
// through the character class.
var spanishPattern = regexp.MustCompile(
	`(?i)[áéíóúüñ¿¡]|` +
		`\b(que|está|es|en|de|la|el|los|las|con|por|para|una|uno|pero|como|más|` +
		`también|sobre|muy|tiene|hacer|qué|cómo|cuál|esto|eso|son|hay|si)\b`,
)

// detectionThreshold is the minimum number of signal matches required to
// classify away from the default language.
const detectionThreshold = 2

// DetectLanguage classifies the query as Spanish or English. Best-effort:
// false negatives silently fall back to English, which surfaces only as
// agents answering in the wrong language.
func DetectLanguage(text string) Language {
	if len(spanishPattern.FindAllString(text, -1)) >= detectionThreshold {
		return Spanish
	}
	return English
}

// LanguageDirective is appended to every system prompt so all agents answer
// in the query's language.
func LanguageDirective(lang Language) string {
	return fmt.Sprintf(
		"\n\nIMPORTANT: You MUST respond ENTIRELY in %s. Do not switch languages under any circumstances.",
		lang,
	)
}
