package segment

import "strings"

const (
	correctHeader     = "Ruta Cognitiva Correcta:"
	distractorsHeader = "Análisis de Opciones No Válidas:"
)

// SplitOnHeader splits a v1 analysis at the distractor header. The text before it,
// without the leading cognitive-path header, is the correct-answer justification.
// The header and everything after it is the distractor analysis.
func SplitOnHeader(raw string) (correct, distractors string, err error) {
	idx := strings.Index(raw, distractorsHeader)
	if idx < 0 {
		return "", "", &HardError{Reason: "analysis has no '" + strings.TrimSuffix(distractorsHeader, ":") + "' section"}
	}
	correct = strings.TrimSpace(raw[:idx])
	correct = strings.TrimSpace(strings.TrimPrefix(correct, correctHeader))
	distractors = strings.TrimSpace(raw[idx:])
	return correct, distractors, nil
}
