package lexical

import "github.com/poiesic/qamatch/normalize"

// stopWords holds Portuguese and English function words in normalized
// (accent-folded) form.
var stopWords = foldAll(
	// português
	"a", "o", "as", "os", "um", "uma", "uns", "umas", "de", "do", "da", "dos", "das",
	"em", "no", "na", "nos", "nas", "por", "para", "com", "sem", "sobre", "entre",
	"e", "ou", "que", "quem", "como", "quando", "onde", "se", "não", "mais", "menos",
	"já", "ainda", "são", "ser", "foi", "era", "eis", "este", "esta", "isto", "esse",
	"essa", "isso", "me", "te", "lhe", "vos", "eles", "elas", "eu", "tu",
	"ele", "ela", "nós", "vós",
	// english
	"the", "an", "in", "on", "for", "of", "and", "or",
	"is", "are", "was", "were", "be", "been", "to", "by", "at", "from", "it", "this",
	"that", "if", "then", "but", "so", "with", "can", "will", "would", "could",
)

func foldAll(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[normalize.Fold(w)] = struct{}{}
	}
	return set
}

// IsStopWord reports whether a normalized token carries no lexical signal.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}
