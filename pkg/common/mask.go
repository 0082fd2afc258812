// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-tiermigrate.
//
// go-tiermigrate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package common

import (
	"regexp"
	"strings"
)

// MaskMode selects how a mask pattern is applied to object keys.
// The set is closed; adding a mode is a compile-time decision for
// every switch over it.
type MaskMode string

const (
	// MaskPrefix matches keys starting with the pattern.
	MaskPrefix MaskMode = "prefix"

	// MaskSuffix matches keys ending with the pattern.
	MaskSuffix MaskMode = "suffix"

	// MaskContains matches keys containing the pattern.
	MaskContains MaskMode = "contains"

	// MaskRegex matches keys against a regular expression (search, not full match).
	MaskRegex MaskMode = "regex"
)

// maskModes is the closed set of recognized modes.
var maskModes = []MaskMode{MaskPrefix, MaskSuffix, MaskContains, MaskRegex}

// ParseMaskMode validates a mode name and returns the canonical value.
func ParseMaskMode(name string) (MaskMode, error) {
	for _, mode := range maskModes {
		if string(mode) == strings.ToLower(name) {
			return mode, nil
		}
	}
	return "", &ValidationError{
		Field:   "mask.mode",
		Message: "unrecognized mask mode: " + name,
	}
}

// Mask is a selection rule over object keys. Build one with NewMask so
// regex patterns are compiled and rejected up front; evaluation is then
// pure and total. A mask is immutable once attached to an operation.
type Mask struct {
	// Name is an operator-facing label, informational only.
	Name string `json:"name,omitempty"`

	// Mode selects the matching behavior.
	Mode MaskMode `json:"mode"`

	// Pattern is the text the mode applies. An empty pattern matches
	// every key; see IsWildcard.
	Pattern string `json:"pattern"`

	// CaseSensitive disables case folding when false.
	CaseSensitive bool `json:"case_sensitive"`

	// re is the compiled pattern for regex mode, set by NewMask.
	re *regexp.Regexp
}

// NewMask builds a validated mask. Regex patterns that do not compile
// are rejected with a ValidationError rather than silently treated as
// literals. Case-insensitive regex matching uses the engine's (?i)
// fold so Unicode behavior stays correct.
func NewMask(name string, mode MaskMode, pattern string, caseSensitive bool) (*Mask, error) {
	if _, err := ParseMaskMode(string(mode)); err != nil {
		return nil, err
	}

	m := &Mask{
		Name:          name,
		Mode:          mode,
		Pattern:       pattern,
		CaseSensitive: caseSensitive,
	}

	if mode == MaskRegex && pattern != "" {
		expr := pattern
		if !caseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &ValidationError{
				Field:   "mask.pattern",
				Message: "invalid regular expression: " + err.Error(),
			}
		}
		m.re = re
	}

	return m, nil
}

// IsWildcard reports whether the mask matches every key. An empty
// pattern is a documented wildcard, not an error; callers that treat
// match-all as risky should confirm before acting on one.
func (m *Mask) IsWildcard() bool {
	return m.Pattern == ""
}

// Matches reports whether the mask selects the given key. It never
// fails: invalid patterns cannot reach this point because NewMask
// rejects them.
func (m *Mask) Matches(key string) bool {
	if m.Pattern == "" {
		return true
	}

	switch m.Mode {
	case MaskRegex:
		if m.re == nil {
			// Mask built without NewMask; compile lazily with the
			// same fold rule and fail closed on a bad pattern.
			expr := m.Pattern
			if !m.CaseSensitive {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return false
			}
			m.re = re
		}
		return m.re.MatchString(key)
	case MaskPrefix, MaskSuffix, MaskContains:
		subject, pattern := key, m.Pattern
		if !m.CaseSensitive {
			subject = strings.ToLower(subject)
			pattern = strings.ToLower(pattern)
		}
		switch m.Mode {
		case MaskPrefix:
			return strings.HasPrefix(subject, pattern)
		case MaskSuffix:
			return strings.HasSuffix(subject, pattern)
		default:
			return strings.Contains(subject, pattern)
		}
	default:
		return false
	}
}

// String renders the mask for status lines and logs.
func (m *Mask) String() string {
	var b strings.Builder
	b.WriteString(string(m.Mode))
	b.WriteString(":")
	if m.Pattern == "" {
		b.WriteString("<all>")
	} else {
		b.WriteString(m.Pattern)
	}
	if m.CaseSensitive {
		b.WriteString(" (case-sensitive)")
	}
	return b.String()
}
