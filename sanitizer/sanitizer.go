// FILE: lixenwraith/logpipe/sanitizer/sanitizer.go
// Package sanitizer removes or escapes runes that would break a single output line,
// based on preset policies built from bitwise filter flags and transforms.
package sanitizer

import (
	"encoding/hex"
	"strconv"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNewline      uint64 = 1 << iota // Matches '\n' and '\r'
	FilterNonPrintable                    // Matches runes not classified as printable by strconv.IsPrint
)

// Transform flags for character transformation
const (
	TransformStrip     uint64 = 1 << iota // Removes the character
	TransformHexEncode                    // Encodes the character's UTF-8 bytes as "<XXYY>"
)

// PolicyPreset defines pre-configured sanitization policies
type PolicyPreset string

const (
	PolicyLine PolicyPreset = "line" // Strips line breaks so a value fits on one output line
	PolicyTxt  PolicyPreset = "txt"  // Line policy plus hex encoding of other non-printable runes
)

// rule represents a single sanitization rule
type rule struct {
	filter    uint64
	transform uint64
}

// policyRules contains pre-configured rules for each policy
var policyRules = map[PolicyPreset][]rule{
	PolicyLine: {{filter: FilterNewline, transform: TransformStrip}},
	PolicyTxt: {
		{filter: FilterNewline, transform: TransformStrip},
		{filter: FilterNonPrintable, transform: TransformHexEncode},
	},
}

// filterOrder fixes the evaluation order of filter flags within one rule
var filterOrder = []uint64{FilterNewline, FilterNonPrintable}

// filterCheckers maps individual filter flags to their check functions
var filterCheckers = map[uint64]func(rune) bool{
	FilterNewline:      func(r rune) bool { return r == '\n' || r == '\r' },
	FilterNonPrintable: func(r rune) bool { return !strconv.IsPrint(r) },
}

// Sanitizer provides chainable text sanitization.
// A Sanitizer is not safe for concurrent use; Sanitize reuses an internal buffer.
type Sanitizer struct {
	rules []rule
	buf   []byte
}

// New creates a new Sanitizer instance
func New() *Sanitizer {
	return &Sanitizer{
		rules: []rule{},
		buf:   make([]byte, 0, 256),
	}
}

// Policy applies a pre-configured policy to the sanitizer (appended)
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	return s
}

// Sanitize applies all configured rules to the input string
func (s *Sanitizer) Sanitize(data string) string {
	if len(s.rules) == 0 {
		return data
	}

	s.buf = s.buf[:0]

	for _, r := range data {
		matched := false
		// First matching rule wins
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				applyTransform(&s.buf, r, rl.transform)
				matched = true
				break
			}
		}
		if !matched {
			s.buf = utf8.AppendRune(s.buf, r)
		}
	}

	return string(s.buf)
}

// matchesFilter checks if a rune matches any filter in the mask
func matchesFilter(r rune, filterMask uint64) bool {
	for _, flag := range filterOrder {
		if (filterMask&flag) != 0 && filterCheckers[flag](r) {
			return true
		}
	}
	return false
}

// applyTransform applies the specified transform to the buffer
func applyTransform(buf *[]byte, r rune, transformMask uint64) {
	switch {
	case (transformMask & TransformStrip) != 0:
		// Do nothing (strip)

	case (transformMask & TransformHexEncode) != 0:
		var runeBytes [utf8.UTFMax]byte
		n := utf8.EncodeRune(runeBytes[:], r)
		*buf = append(*buf, '<')
		*buf = append(*buf, hex.EncodeToString(runeBytes[:n])...)
		*buf = append(*buf, '>')
	}
}
