package segment

import (
	"regexp"
	"strings"

	"github.com/itemforge/fichas/internal/models"
)

// marker matches [JUSTIFICACION_X] in any case, with or without the accent,
// tolerating spaces or an underscore before the letter.
var marker = regexp.MustCompile(`(?i)\[\s*JUSTIFICACI[OÓ]N[\s_]*([A-D])\s*\]`)

var keyPattern = regexp.MustCompile(`(?i)^(?:OPCI[OÓ]N\s*)?([A-D])[\s.):]*$`)

// ExtractMarkers reads one justification per option from bracketed markers. A block
// runs from the end of its marker to the next marker of any letter or the end of text.
// The first occurrence of a letter wins. Markdown emphasis around markers is dropped.
// Missing or empty blocks become placeholders.
func ExtractMarkers(raw, key string) Result {
	res := newResult()

	locs := marker.FindAllStringSubmatchIndex(raw, -1)
	blocks := map[string]string{}
	for i, loc := range locs {
		letter := strings.ToUpper(raw[loc[2]:loc[3]])
		if _, seen := blocks[letter]; seen {
			continue
		}
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimLeft(raw[loc[1]:end], decoration)
		blocks[letter] = strings.TrimSpace(trailingMarkup.ReplaceAllString(body, ""))
	}

	texts := map[string]string{}
	for _, l := range models.OptionLetters {
		field := models.JustificationField(l)
		if body := blocks[l]; body != "" {
			res.set(field, body)
		} else {
			res.gap(field, MissingOption(l))
		}
		texts[l] = res.Fields[field]
	}

	keyLetter := NormalizeKey(key)
	if keyLetter == "" {
		res.gap(models.FieldJustificacionCorrecta, MissingOption("correcta"))
	} else if blocks[keyLetter] == "" {
		res.gap(models.FieldJustificacionCorrecta, texts[keyLetter])
	} else {
		res.Fields[models.FieldJustificacionCorrecta] = texts[keyLetter]
	}

	var parts []string
	for _, l := range models.OptionLetters {
		if l == keyLetter {
			continue
		}
		parts = append(parts, "Opción "+l+": "+texts[l])
	}
	res.Fields[models.FieldAnalisisDistractores] = strings.Join(parts, "\n\n")

	return res
}

// NormalizeKey returns the option letter named by an answer-key cell, or "" when it names none.
func NormalizeKey(key string) string {
	m := keyPattern.FindStringSubmatch(strings.TrimSpace(key))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
