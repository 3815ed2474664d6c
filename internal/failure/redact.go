package failure

import "regexp"

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// Key material that upstream SDKs are known to echo back in error text.
var redactPatterns = []redactPattern{
	// Google API keys
	{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`), "AIza***"},
	// key= query parameters in echoed URLs
	{regexp.MustCompile(`([?&]key=)[^&\s"']+`), "${1}***"},
	{regexp.MustCompile(`(?i)(bearer\s+)[a-z0-9._\-]+`), "${1}***"},
}

// Redact masks credentials in s.
func Redact(s string) string {
	for _, p := range redactPatterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}
