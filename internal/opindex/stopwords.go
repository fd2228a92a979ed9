package opindex

// stopWords is the usual English stop-word list minus "get", "me", "my" and
// "all", which are meaningful when searching admin operations.
var stopWords = toSet([]string{
	"a", "able", "about", "across", "after", "almost", "also", "am", "among", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "but", "by",
	"can", "cannot", "could", "dear", "did", "do", "does", "either", "else", "ever",
	"every", "for", "from", "got", "had", "has", "have", "he", "her", "hers",
	"him", "his", "how", "however", "i", "if", "in", "into", "is", "it",
	"its", "just", "least", "let", "like", "likely", "may", "might", "most", "must",
	"neither", "no", "nor", "not", "of", "off", "often", "on", "only", "or",
	"other", "our", "own", "rather", "said", "say", "says", "she", "should", "since",
	"so", "some", "than", "that", "the", "their", "them", "then", "there", "these",
	"they", "this", "tis", "to", "too", "twas", "us", "wants", "was", "we",
	"were", "what", "when", "where", "which", "while", "who", "whom", "why", "will",
	"with", "would", "yet", "you", "your",
})

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsStopWord reports whether the lower-cased word is dropped from the index.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}
