package speech_to_text

import "strings"

// joinSegments drops bracketed annotations such as "[BLANK_AUDIO]" or
// "(music)" and repeated segments, and joins the rest.
func joinSegments(texts []string) string {
	seenText := make(map[string]bool)

	kept := make([]string, 0, len(texts))

	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if text[0] == '(' || text[0] == '[' ||
			text[len(text)-1] == ')' || text[len(text)-1] == ']' {
			continue
		}

		if seenText[text] {
			continue
		}

		seenText[text] = true

		kept = append(kept, text)
	}

	return strings.Join(kept, " ")
}
