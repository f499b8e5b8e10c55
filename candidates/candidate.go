// Package candidates turns a set of Requirements into a sorted list of
// SelectionCandidates the solver can choose among: it loads the
// interface's own feed (nested, site-packages and manually-added feeds
// are not loaded), queries package managers for
// PackageImplementations, and applies the
// eleven-key sort order the solver relies on to try good candidates
// first.
package candidates

import (
	"sort"
	"strings"

	"github.com/0install/0install-dotnet-sub004/model"
	"github.com/0install/0install-dotnet-sub004/version"
)

// NetworkUse mirrors the user's configured network policy.
type NetworkUse int

const (
	NetworkFull NetworkUse = iota
	NetworkMinimal
	NetworkOffline
)

// SelectionCandidate is one implementation under consideration for a
// single interface, together with the derived facts the sort order and
// the solver's compatibility check need.
type SelectionCandidate struct {
	InterfaceUri string
	Implementation *model.Implementation

	// Distribution is the package-manager namespace this candidate
	// came from ("zero-install" for native feed implementations).
	Distribution string

	LanguageRank     int // 0 = best (exact + country), higher = worse
	CountryLangRank  int
	Cached           bool
	OfflineUncached  bool
	EffectiveStability model.Stability

	// RolloutRoll is this implementation's persisted dice roll (0-99),
	// set by Provider.Candidates when Implementation.RolloutPercentage
	// is non-nil; zero and meaningless otherwise.
	RolloutRoll int

	Notes string // why IsSuitable is false, for diagnostics
}

// IsSuitable reports whether this candidate could be selected at all:
// not buggy/insecure, matches the requirements' architecture and
// version range, is cached if the network policy is Offline, and (if a
// rollout percentage applies) falls within the persisted roll.
// Languages are not checked here; they only affect the sort order
// through LanguageRank and CountryLangRank.
func (c *SelectionCandidate) IsSuitable(requirements *model.Requirements, policy StabilityPolicy) bool {
	impl := c.Implementation
	if impl == nil {
		return false
	}
	if impl.Stability == model.Buggy || impl.Stability == model.Insecure {
		return false
	}
	if !impl.Architecture.CompatibleWith(requirements.Architecture) {
		return false
	}
	if !requirements.RestrictionFor(c.InterfaceUri).Match(impl.Version) {
		return false
	}
	if c.OfflineUncached {
		return false
	}
	if impl.RolloutPercentage != nil && c.RolloutRoll >= *impl.RolloutPercentage {
		return false
	}
	return true
}

// computeLanguageRank scores implLanguages against requested per
// spec.md §4.3 rule 2 (exact "language-COUNTRY" match, then a
// bare-language match, then an offered English translation as a
// last-resort fallback, then no match at all) and rule 9
// (country-specialised language rank: how early in the requested list
// the match occurred, breaking ties within the same languageRank).
func computeLanguageRank(implLanguages, requested []string) (languageRank, countryLangRank int) {
	const (
		rankExactCountry = 0
		rankLanguageOnly = 1
		rankEnglish      = 2
		rankNone         = 3
	)

	if len(requested) == 0 {
		return rankNone, 0
	}

	languageRank = rankNone
	countryLangRank = len(requested)

	for i, want := range requested {
		wantLang := baseLanguage(want)
		for _, have := range implLanguages {
			if baseLanguage(have) != wantLang {
				continue
			}
			rank := rankLanguageOnly
			if strings.EqualFold(have, want) {
				rank = rankExactCountry
			}
			if rank < languageRank || (rank == languageRank && i < countryLangRank) {
				languageRank = rank
				countryLangRank = i
			}
		}
	}

	if languageRank == rankNone {
		for _, have := range implLanguages {
			if baseLanguage(have) == "en" {
				languageRank = rankEnglish
				break
			}
		}
	}

	return languageRank, countryLangRank
}

// baseLanguage strips a "-COUNTRY"/"_COUNTRY" suffix from a language
// tag and lower-cases it, e.g. "en-US" -> "en".
func baseLanguage(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// StabilityPolicy is the user-configured floor; any stability at or
// above it is treated as Preferred for sorting purposes.
type StabilityPolicy struct {
	Threshold model.Stability
}

func (p StabilityPolicy) effective(s model.Stability) model.Stability {
	if s >= p.Threshold {
		return model.Preferred
	}
	return s
}

// Sort orders candidates in place per the eleven-key order: see
// compareLess for the rule-by-rule breakdown.
func Sort(cands []*SelectionCandidate, network NetworkUse, policy StabilityPolicy) {
	sort.SliceStable(cands, func(i, j int) bool {
		return compareLess(cands[i], cands[j], network, policy)
	})
}

func compareLess(a, b *SelectionCandidate, network NetworkUse, policy StabilityPolicy) bool {
	// 1. Preferred stability first.
	aPreferred := a.EffectiveStability == model.Preferred
	bPreferred := b.EffectiveStability == model.Preferred
	if aPreferred != bPreferred {
		return aPreferred
	}

	// 2. Language rank: lower is better.
	if a.LanguageRank != b.LanguageRank {
		return a.LanguageRank < b.LanguageRank
	}

	// 3. If network use < Full: cached before uncached.
	if network != NetworkFull && a.Cached != b.Cached {
		return a.Cached
	}

	// 4. Stability capped to policy.
	aStab := policy.effective(a.EffectiveStability)
	bStab := policy.effective(b.EffectiveStability)
	if aStab != bStab {
		return aStab > bStab
	}

	// 5. Major-version component descending.
	aMajor, bMajor := majorPart(a.Implementation.Version), majorPart(b.Implementation.Version)
	if cmp, err := version.Compare(aMajor, bMajor); err == nil && cmp != 0 {
		return cmp > 0
	}

	// 6. Native packages preferred when leading parts tie.
	aNative := a.Distribution != "" && a.Distribution != "zero-install"
	bNative := b.Distribution != "" && b.Distribution != "zero-install"
	if aNative != bNative {
		return aNative
	}

	// 7. Full version descending.
	if cmp, err := version.Compare(a.Implementation.Version, b.Implementation.Version); err == nil && cmp != 0 {
		return cmp > 0
	}

	// 8. OS specificity descending, then CPU specificity descending.
	aOS, aCPU := a.Implementation.Architecture.Specificity()
	bOS, bCPU := b.Implementation.Architecture.Specificity()
	if aOS != bOS {
		return aOS > bOS
	}
	if aCPU != bCPU {
		return aCPU > bCPU
	}

	// 9. Country-specialised language rank.
	if a.CountryLangRank != b.CountryLangRank {
		return a.CountryLangRank < b.CountryLangRank
	}

	// 10. If network use == Full: cached before uncached (weak tiebreak).
	if network == NetworkFull && a.Cached != b.Cached {
		return a.Cached
	}

	// 11. Lexicographic ID, for determinism.
	return a.Implementation.ID < b.Implementation.ID
}

// majorPart returns a version containing only v's first Part, used
// for the descending major-version comparison (sort rule 5).
func majorPart(v version.Version) version.Version {
	if len(v.Parts) == 0 {
		return v
	}
	return version.Version{Parts: v.Parts[:1]}
}
