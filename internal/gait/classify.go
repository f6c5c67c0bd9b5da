package gait

import (
	"path/filepath"
	"strings"
)

// TestType tags the clinical protocol a recording belongs to. It is inferred
// from the source name as a best-effort heuristic; it is not authoritative.
type TestType string

const (
	TestWalk              TestType = "walk"
	TestWalkwayTurn       TestType = "walkway_turn"
	TestSitting           TestType = "sitting"
	TestSitToStand        TestType = "sit_to_stand"
	TestStaticStanding    TestType = "static_standing"
	TestSplitStance       TestType = "split_stance"
	TestDoubleSplitStance TestType = "double_split_stance"
)

// TestTypeClassifier maps a source name (usually a file basename) to a test
// type. The classifier is injectable so deployments with different naming
// schemes can swap it without touching the numerical pipeline.
type TestTypeClassifier interface {
	Classify(sourceName string) TestType
}

// KeywordClassifier classifies by substring match against an ordered rule
// list; the first match wins and an empty match falls back to TestWalk.
type KeywordClassifier struct {
	rules    []keywordRule
	fallback TestType
}

type keywordRule struct {
	keywords []string
	testType TestType
}

// NewDefaultClassifier recognises the acquisition software's file naming.
// Exports name the protocol step in the basename, in Chinese for the stock
// firmware with English aliases for re-exported data.
func NewDefaultClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		fallback: TestWalk,
		rules: []keywordRule{
			{[]string{"步道折返", "walkway"}, TestWalkwayTurn},
			{[]string{"静坐", "sitting"}, TestSitting},
			{[]string{"起坐", "sit-to-stand", "sit_to_stand"}, TestSitToStand},
			{[]string{"静态站立", "static-standing", "static_standing"}, TestStaticStanding},
			{[]string{"双脚前后站立", "double-split"}, TestDoubleSplitStance},
			{[]string{"前后脚站立", "split-stance", "split_stance"}, TestSplitStance},
		},
	}
}

// Classify implements TestTypeClassifier.
func (c *KeywordClassifier) Classify(sourceName string) TestType {
	name := strings.ToLower(filepath.Base(sourceName))
	for _, rule := range c.rules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.testType
			}
		}
	}
	return c.fallback
}

// StaticTestType reports whether a test type is expected to be
// non-ambulatory, where gait parameters stay at their neutral defaults and
// balance metrics carry the clinical signal.
func StaticTestType(t TestType) bool {
	switch t {
	case TestSitting, TestStaticStanding, TestSplitStance, TestDoubleSplitStance:
		return true
	}
	return false
}
