package lexical

import "strings"

// Stemmer reduces a normalized token to a stem.
type Stemmer interface {
	Stem(token string) string
}

// StemmerFunc adapts a function to Stemmer.
type StemmerFunc func(string) string

func (f StemmerFunc) Stem(token string) string { return f(token) }

// PluralStemmer strips common Portuguese and English plural endings.
// It is deliberately light: singular and plural forms of the same word
// collapse, other inflections are left alone.
var PluralStemmer Stemmer = StemmerFunc(stemPlural)

func stemPlural(token string) string {
	if len(token) <= 3 {
		return token
	}
	switch {
	case strings.HasSuffix(token, "oes"), strings.HasSuffix(token, "aes"):
		return token[:len(token)-3] + "ao"
	case strings.HasSuffix(token, "ns"):
		return token[:len(token)-2] + "m"
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "res"), strings.HasSuffix(token, "zes"), strings.HasSuffix(token, "ses"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ss"), strings.HasSuffix(token, "us"), strings.HasSuffix(token, "is"):
		return token
	case strings.HasSuffix(token, "s"):
		return token[:len(token)-1]
	}
	return token
}
