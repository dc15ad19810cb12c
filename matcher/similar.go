package matcher

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/gosimple/slug"

	"mod-aggregator/normalize"
)

// sameNameThreshold is the minimum similarity ratio for the fuzzy name rule.
const sameNameThreshold = 0.80

// IsSameMod is the display-only heuristic used by live merge to decide
// whether two normalized records from different platforms are the same mod.
// It is deliberately softer than the persistence-path match ladder and must
// stay a separate function: a wrong merge here costs a re-render, a wrong
// merge there corrupts the catalog.
func IsSameMod(a, b normalize.Record) bool {
	slugA, slugB := slug.Make(a.ExternalSlug), slug.Make(b.ExternalSlug)
	if slugA != "" && slugA == slugB {
		return true
	}

	nameA, nameB := strings.TrimSpace(a.Name), strings.TrimSpace(b.Name)
	if nameA == "" || nameB == "" {
		return false
	}
	if strings.EqualFold(nameA, nameB) {
		return true
	}

	if strutil.Similarity(nameA, nameB, metrics.NewSorensenDice()) > sameNameThreshold &&
		strings.EqualFold(strings.TrimSpace(a.Author), strings.TrimSpace(b.Author)) {
		return true
	}
	return false
}
