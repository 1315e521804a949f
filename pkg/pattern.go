package dirhash

import (
	"regexp"
	"strings"
)

// Pattern matches a whole file or directory name. '*' matches any run of
// characters (including none); every other character is literal.
type Pattern struct {
	text string
	re   *regexp.Regexp
}

// NewPattern compiles a name pattern
func NewPattern(text string) (*Pattern, error) {
	if text == "" {
		return nil, &PatternError{Pattern: text, Reason: "empty pattern"}
	}
	if strings.ContainsAny(text, `/\`) {
		return nil, &PatternError{Pattern: text, Reason: "patterns match names, not paths"}
	}

	quoted := strings.ReplaceAll(regexp.QuoteMeta(text), `\*`, ".*")
	re, err := regexp.Compile("^" + quoted + "$")
	if err != nil {
		return nil, &PatternError{Pattern: text, Reason: err.Error()}
	}

	return &Pattern{text: text, re: re}, nil
}

// Matches reports whether name matches the pattern in full
func (p *Pattern) Matches(name string) bool {
	return p.re.MatchString(name)
}

func (p *Pattern) String() string {
	return p.text
}
