package admin

import "strings"

// Tokenize splits a command line on whitespace. Double-quoted segments
// keep their embedded spaces and lose the quotes.
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			if !inQuotes {
				// An empty quoted segment still counts as a token.
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
