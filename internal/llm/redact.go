package llm

import "regexp"

// Redactor scrubs credentials from text before it reaches disk: session
// transcripts, run logs, and error details all pass through here.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor covers the leak paths this tool actually has: the Gemini key
// travels as a URL query parameter, and users paste keys into config or
// shell snippets that end up in transcripts.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*redactPattern{
			{
				regex:       regexp.MustCompile(`([?&]key=)[A-Za-z0-9_\-]+`),
				replacement: `$1[REDACTED_API_KEY]`,
			},
			{
				regex:       regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
				replacement: `[REDACTED_API_KEY]`,
			},
			{
				regex:       regexp.MustCompile(`(?i)(api[_-]?key|apikey)[=:]\s*["']?([A-Za-z0-9_\-]{20,})["']?`),
				replacement: `$1=[REDACTED_API_KEY]`,
			},
			{
				regex:       regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-\.]+`),
				replacement: `Bearer [REDACTED_TOKEN]`,
			},
		},
	}
}

// Redact replaces every credential match in the input.
func (r *Redactor) Redact(input string) string {
	result := input
	for _, p := range r.patterns {
		result = p.regex.ReplaceAllString(result, p.replacement)
	}
	return result
}

// ContainsSecrets reports whether the input has anything Redact would touch.
func (r *Redactor) ContainsSecrets(input string) bool {
	for _, p := range r.patterns {
		if p.regex.MatchString(input) {
			return true
		}
	}
	return false
}

var defaultRedactor = NewRedactor()

// RedactSecrets scrubs text with the default pattern set.
func RedactSecrets(input string) string {
	return defaultRedactor.Redact(input)
}
