package schemaform

import "strings"

// DeriveLabel turns a machine field name into a human label: underscores
// become spaces, camelCase boundaries split, and every word is capitalized.
// A non-blank title wins over derivation.
func DeriveLabel(name, title string) string {
	if strings.TrimSpace(title) != "" {
		return title
	}

	spaced := strings.ReplaceAll(name, "_", " ")
	words := strings.Fields(splitCamel(spaced))

	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func splitCamel(input string) string {
	var out strings.Builder
	var prev rune
	for i, r := range input {
		if i > 0 && isLower(prev) && isUpper(r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
		prev = r
	}
	return out.String()
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
