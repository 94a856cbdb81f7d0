package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	experienceRegex = regexp.MustCompile(`(?i)(\d+)\+?\s*years`)
	spaceRegex      = regexp.MustCompile(`\s+`)

	defaultClassifier = mustClassifier(DefaultKeywords(), DefaultMaxExperienceYears)
)

// Classifier decides whether a posting is in scope for the target role. It holds
// only compiled patterns and is safe for concurrent use.
type Classifier struct {
	include   *regexp.Regexp
	exclude   *regexp.Regexp
	seniority *regexp.Regexp
	maxYears  int
}

func NewClassifier(kw Keywords, maxExperienceYears int) (*Classifier, error) {
	if maxExperienceYears <= 0 {
		maxExperienceYears = DefaultMaxExperienceYears
	}

	include, err := compileKeywords(kw.Include)
	if err != nil {
		return nil, fmt.Errorf("include keywords: %w", err)
	}
	exclude, err := compileKeywords(kw.Exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude keywords: %w", err)
	}
	seniority, err := compileKeywords(kw.Seniority)
	if err != nil {
		return nil, fmt.Errorf("seniority keywords: %w", err)
	}

	return &Classifier{
		include:   include,
		exclude:   exclude,
		seniority: seniority,
		maxYears:  maxExperienceYears,
	}, nil
}

func mustClassifier(kw Keywords, maxYears int) *Classifier {
	c, err := NewClassifier(kw, maxYears)
	if err != nil {
		panic(err)
	}
	return c
}

// compileKeywords builds one `\b(a|b|c)\b` alternation. A nil pattern never matches.
func compileKeywords(phrases []string) (*regexp.Regexp, error) {
	parts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		words := spaceRegex.Split(p, -1)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		parts = append(parts, strings.Join(words, `\s*`))
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return regexp.Compile(`(?i)\b(` + strings.Join(parts, "|") + `)\b`)
}

func matches(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}

// normalizeText strips diacritics so "Ingénieur" and "Ingenieur" match alike.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, str)
	if err != nil {
		return str
	}
	return result
}

// IsTargetTitle reports whether title names the target role and none of the
// excluded or seniority keywords.
func (c *Classifier) IsTargetTitle(title string) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}
	text := normalizeText(title)

	if !matches(c.include, text) {
		return false
	}
	if matches(c.exclude, text) {
		return false
	}
	if matches(c.seniority, text) {
		return false
	}
	return true
}

// HasExcessiveExperience reports whether text asks for at least the configured
// number of years anywhere ("10+ years", "8 years"). Ranges count by their upper
// bound only, so "3-5 years" is fine. Any number in front of "years" counts,
// including "10 years ago".
func (c *Classifier) HasExcessiveExperience(text string) bool {
	if text == "" {
		return false
	}
	for _, m := range experienceRegex.FindAllStringSubmatch(text, -1) {
		years, err := strconv.Atoi(m[1])
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return true
			}
			continue
		}
		if years >= c.maxYears {
			return true
		}
	}
	return false
}

// MaxExperienceYears is the threshold HasExcessiveExperience compares against.
func (c *Classifier) MaxExperienceYears() int {
	return c.maxYears
}

// IsTargetTitle uses the default data-engineering keyword sets.
func IsTargetTitle(title string) bool {
	return defaultClassifier.IsTargetTitle(title)
}

// HasExcessiveExperience uses the default threshold of six years.
func HasExcessiveExperience(text string) bool {
	return defaultClassifier.HasExcessiveExperience(text)
}
