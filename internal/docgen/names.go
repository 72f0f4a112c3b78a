package docgen

import (
	"fmt"
	"strings"
)

// EntryNames derives one archive entry name (without extension) per row from
// the name column values. Path separators become "_", blank values become
// ficha_<n> (1-based) and repeats get a _<k> suffix, so the result has one
// distinct name per value.
func EntryNames(values []string) []string {
	names := make([]string, len(values))
	seen := make(map[string]bool, len(values))
	for i, v := range values {
		base := strings.TrimSpace(v)
		base = strings.NewReplacer("/", "_", `\`, "_").Replace(base)
		if base == "" {
			base = fmt.Sprintf("ficha_%d", i+1)
		}
		name := base
		for k := 2; seen[name]; k++ {
			name = fmt.Sprintf("%s_%d", base, k)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}
