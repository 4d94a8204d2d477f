package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineExtractor_KeepsLastMatches(t *testing.T) {
	output := "building\nRunning TESTS\nok 1\n3 passed\nnoise\n1 FAILED\n\npytest summary\n"
	e := LineExtractor{Predicates: KeywordPredicates(DefaultTestKeywords), Keep: 3}

	assert.Equal(t, []string{"3 passed", "1 FAILED", "pytest summary"}, e.Extract(output))
}

func TestLineExtractor_NoMatches(t *testing.T) {
	e := LineExtractor{Predicates: KeywordPredicates(DefaultTestKeywords), Keep: 3}
	assert.Empty(t, e.Extract("hello\nworld"))
	assert.Empty(t, e.Extract(""))
}

func TestLineExtractor_CustomPredicates(t *testing.T) {
	e := LineExtractor{
		Predicates: []LinePredicate{RegexpPredicate(regexp.MustCompile(`^--- (PASS|FAIL)`))},
		Keep:       5,
	}
	out := "=== RUN TestA\n--- PASS: TestA\n=== RUN TestB\n--- FAIL: TestB\r\n"

	assert.Equal(t, []string{"--- PASS: TestA", "--- FAIL: TestB"}, e.Extract(out))
}

func TestKeywordPredicates_SkipsBlank(t *testing.T) {
	assert.Len(t, KeywordPredicates([]string{"pass", " ", ""}), 1)
}
