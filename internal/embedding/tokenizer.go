package embedding

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// Encoding is the fixed-length input a BERT-style encoder expects.
type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
}

// Tokenizer encodes text into at most maxTokens positions, padding the rest.
type Tokenizer interface {
	Encode(text string, maxTokens int) Encoding
}

const (
	padTokenID      = 0
	clsTokenID      = 101
	sepTokenID      = 102
	firstWordID     = 1000
	vocabSize       = 30522
	defaultMaxToken = 256
)

// HashTokenizer maps each word onto the model vocabulary by hashing it. It does not
// reproduce WordPiece, so vectors are only comparable with others it produced.
type HashTokenizer struct{}

// Encode lays out [CLS] words [SEP] followed by padding.
func (HashTokenizer) Encode(text string, maxTokens int) Encoding {
	if maxTokens < 2 {
		maxTokens = defaultMaxToken
	}
	enc := Encoding{
		InputIDs:      make([]int64, maxTokens),
		AttentionMask: make([]int64, maxTokens),
		TokenTypeIDs:  make([]int64, maxTokens),
	}

	ids := []int64{clsTokenID}
	for _, word := range NormalizedWords(text) {
		if len(ids) == maxTokens-1 {
			break
		}
		ids = append(ids, wordID(word))
	}
	ids = append(ids, sepTokenID)

	for i, id := range ids {
		enc.InputIDs[i] = id
		enc.AttentionMask[i] = 1
	}
	return enc
}

func wordID(word string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return firstWordID + int64(h.Sum32()%(vocabSize-firstWordID))
}

// NormalizedWords lower-cases text and splits it into runs of letters and digits.
func NormalizedWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
