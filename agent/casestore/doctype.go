package casestore

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TypeParser maps a stored filename to a document type label.
// An empty label means the type could not be inferred.
type TypeParser func(filename string) string

// ParseTypeFromFilename reads the type from names such as "0001_Anexo.pdf",
// "0003 - Ofício 12.pdf", "Ofício nº 12.pdf" or "Nota_Técnica_3.pdf": leading
// numbering is skipped and the words up to the first token holding a digit
// or a number abbreviation form the type.
func ParseTypeFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	tokens := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})

	start := 0
	for start < len(tokens) && isFiller(tokens[start]) {
		start++
	}
	end := start
	for end < len(tokens) && !hasDigit(tokens[end]) && !isFiller(tokens[end]) && !isNumberMark(tokens[end]) {
		end++
	}
	if start == end {
		return ""
	}
	return strings.Join(tokens[start:end], " ")
}

// NormalizeType folds a type label for comparison: whitespace collapsed,
// accents removed, lower case.
func NormalizeType(label string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		label,
	)
	if err != nil {
		folded = label
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// MatchType reports whether a document type equals the requested one after
// normalization. There is no substring matching.
func MatchType(docType, want string) bool {
	n := NormalizeType(want)
	return n != "" && NormalizeType(docType) == n
}

// isFiller is true for tokens made only of digits and punctuation.
func isFiller(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// numberMarks are the abbreviations of "número" that precede a document number.
var numberMarks = map[string]bool{
	"nº":   true,
	"n°":   true,
	"n.º":  true,
	"n.°":  true,
	"no.":  true,
	"nr.":  true,
	"num.": true,
	"núm.": true,
}

func isNumberMark(tok string) bool {
	return numberMarks[strings.ToLower(tok)]
}

func hasDigit(tok string) bool {
	for _, r := range tok {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
