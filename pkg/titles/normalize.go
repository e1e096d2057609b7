// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package titles normalizes scraped work titles for matching against library
// inventories. Matching is exact on the normalized form; normalization folds
// case, width and punctuation, and series comparison additionally strips a
// localized "season N" suffix.
package titles

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/listarr/listarr/pkg/stringutils"
)

var (
	cnSeasonRe = regexp.MustCompile(`第([0-9０-９零一二两三四五六七八九十百]+)季`)
	enSeasonRe = regexp.MustCompile(`(?i)\bseason\s+([0-9]+)\s*$`)
)

// Normalize returns the canonical matching form of a title: half-width,
// lowercased, punctuation dropped, inner whitespace collapsed to single
// spaces. The result is interned since the same titles recur across the
// snapshot index and the search terms.
func Normalize(s string) string {
	s = width.Narrow.String(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		default:
			// Punctuation acts as a separator, not a character.
			space = true
		}
	}
	return stringutils.Intern(b.String())
}

// NormalizeSeries normalizes a series title for comparison, stripping the
// trailing season marker first so that "权力的游戏 第八季" and "权力的游戏"
// compare equal, as do "Game of Thrones Season 8" and "Game of Thrones".
func NormalizeSeries(s string) string {
	return Normalize(StripSeasonSuffix(s))
}

// StripSeasonSuffix removes a localized season marker ("第N季", N decimal or
// Chinese numeral) and an English trailing "Season N" from the title.
func StripSeasonSuffix(s string) string {
	s = cnSeasonRe.ReplaceAllString(s, "")
	s = enSeasonRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SeasonMarker finds the localized season marker in a title. It returns the
// matched fragment, the parsed season number and whether a marker was found.
func SeasonMarker(s string) (string, int, bool) {
	m := cnSeasonRe.FindStringSubmatch(s)
	if m == nil {
		return "", 0, false
	}
	n, ok := parseNumeral(m[1])
	if !ok {
		return m[0], 0, false
	}
	return m[0], n, true
}

var cnDigits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// parseNumeral parses a season number written either in ASCII/full-width
// digits or as a Chinese numeral up to the hundreds (十一, 二十三, 一百零五).
func parseNumeral(s string) (int, bool) {
	s = width.Narrow.String(s)
	if s != "" && isASCIIDigits(s) {
		n := 0
		for _, r := range s {
			n = n*10 + int(r-'0')
		}
		return n, true
	}

	total, current := 0, 0
	for _, r := range s {
		switch r {
		case '十':
			if current == 0 {
				current = 1
			}
			total += current * 10
			current = 0
		case '百':
			if current == 0 {
				current = 1
			}
			total += current * 100
			current = 0
		default:
			d, ok := cnDigits[r]
			if !ok {
				return 0, false
			}
			current = current*10 + d
		}
	}
	total += current
	if total == 0 && !strings.ContainsRune(s, '零') {
		return 0, false
	}
	return total, true
}

func isASCIIDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
