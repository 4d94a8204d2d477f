package domain

import (
	"regexp"
	"strings"
)

// DefaultTestKeywords are the keywords that mark a line as a test result.
var DefaultTestKeywords = []string{"tests", "passed", "failed", "pytest", "pass", "fail"}

// LinePredicate reports whether a line should be kept.
type LinePredicate interface {
	Match(line string) bool
}

// LinePredicateFunc adapts a function to LinePredicate.
type LinePredicateFunc func(line string) bool

// Match calls f(line).
func (f LinePredicateFunc) Match(line string) bool {
	return f(line)
}

// KeywordPredicate matches lines containing the keyword, ignoring case.
func KeywordPredicate(keyword string) LinePredicate {
	kw := strings.ToLower(keyword)
	return LinePredicateFunc(func(line string) bool {
		return strings.Contains(strings.ToLower(line), kw)
	})
}

// RegexpPredicate matches lines against re.
func RegexpPredicate(re *regexp.Regexp) LinePredicate {
	return LinePredicateFunc(re.MatchString)
}

// KeywordPredicates builds one predicate per keyword, in order.
func KeywordPredicates(keywords []string) []LinePredicate {
	preds := make([]LinePredicate, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			preds = append(preds, KeywordPredicate(kw))
		}
	}
	return preds
}

// LineExtractor keeps the last Keep lines matching any of its predicates.
type LineExtractor struct {
	Predicates []LinePredicate
	Keep       int
}

// Extract scans text line by line. Blank lines never match.
func (e LineExtractor) Extract(text string) []string {
	if e.Keep <= 0 || len(e.Predicates) == 0 {
		return nil
	}
	var matched []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, p := range e.Predicates {
			if p.Match(line) {
				matched = append(matched, line)
				break
			}
		}
	}
	if len(matched) > e.Keep {
		matched = matched[len(matched)-e.Keep:]
	}
	return matched
}
