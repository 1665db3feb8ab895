// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package normalize canonicalizes free text for matching.
//
// Normalized text is lowercase, has diacritics folded away, keeps only
// letters, digits, underscores and single spaces, and has no leading or
// trailing whitespace. Normalizing normalized text returns it unchanged.
package normalize

import (
	"strings"
	"unicode"

	"github.com/poiesic/qamatch/core"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text normalizes raw input. It returns core.ErrEmptyInput when raw is
// empty or whitespace only. Input made only of punctuation normalizes to
// the empty string without error.
func Text(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", core.ErrEmptyInput
	}
	return Fold(raw), nil
}

// Fold applies the normalization pipeline without the empty-input check.
func Fold(s string) string {
	s = strings.ToLower(s)

	// transform chains carry state and are not safe to share
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits normalized text on spaces.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}
