package segment

import (
	"regexp"
	"strings"

	"github.com/itemforge/fichas/internal/models"
)

var (
	advanceToken     = regexp.MustCompile(`(?i)RECOMENDACI[OÓ]N\s+PARA\s+AVANZAR`)
	improvementToken = regexp.MustCompile(`(?i)OPORTUNIDAD\s+DE\s+MEJORA`)
	strengthenHeader = regexp.MustCompile(`(?i)^[\s:*#]*RECOMENDACI[OÓ]N\s+PARA\s+FORTALECER`)
	headerTail       = regexp.MustCompile(`(?i)^\s*(?:EN\s+)?EL\s+APRENDIZAJE\s+EVALUADO\s+EN\s+EL\s+[IÍ]TEM`)
	// trailingMarkup is the opening markup of the next header left at the end of a block.
	trailingMarkup = regexp.MustCompile(`(?:\s+[*#]+)?\s*$`)
)

const decoration = ":*# \t\r\n"

// SplitRecommendations cuts the stage-3 output into the strengthen, advance and,
// when withImprovement is set, improvement blocks. Header tokens are searched
// case-insensitively and stripped with their decoration.
func SplitRecommendations(raw string, withImprovement bool) Result {
	res := newResult()
	text := strings.TrimSpace(raw)

	adv := advanceToken.FindStringIndex(text)
	if adv == nil {
		res.set(models.FieldRecFortalecer, stripStrengthen(text))
		res.gap(models.FieldRecAvanzar, NotGenerated(models.FieldRecAvanzar))
		if withImprovement {
			res.gap(models.FieldOportunidadMejora, NotGenerated(models.FieldOportunidadMejora))
		}
		return res
	}

	res.set(models.FieldRecFortalecer, stripStrengthen(text[:adv[0]]))

	advanceEnd := len(text)
	var imp []int
	if withImprovement {
		if loc := improvementToken.FindStringIndex(text[adv[1]:]); loc != nil {
			imp = []int{adv[1] + loc[0], adv[1] + loc[1]}
			advanceEnd = imp[0]
		}
	}
	res.set(models.FieldRecAvanzar, stripHeader(text[adv[1]:advanceEnd]))

	if withImprovement {
		if imp == nil {
			res.gap(models.FieldOportunidadMejora, NotGenerated(models.FieldOportunidadMejora))
		} else {
			res.set(models.FieldOportunidadMejora, stripHeader(text[imp[1]:]))
		}
	}
	return res
}

// stripHeader removes the known header tail and decoration from the front of a
// block, and trailing decoration left by the next header's markup.
func stripHeader(s string) string {
	s = strings.TrimLeft(s, decoration)
	s = headerTail.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, decoration)
	return trailingMarkup.ReplaceAllString(s, "")
}

func stripStrengthen(s string) string {
	if loc := strengthenHeader.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	return stripHeader(s)
}
