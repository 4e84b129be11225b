package embeddingbench

import (
	"bufio"
	"os"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
)

type Empty struct{}

// termTokenizer implements TermTokenizer for ontology surface terms. Latin
// text is split on letters and digits; Han text goes through GSE.
type termTokenizer struct {
	seg     gse.Segmenter
	segOnce sync.Once

	stops map[string]Empty

	wordPattern *regexp.Regexp
}

// NewTermTokenizer creates a TermTokenizer with the default stop words
func NewTermTokenizer() TermTokenizer {
	return NewTermTokenizerWithConfig(defaultTermStopWords())
}

// NewTermTokenizerWithConfig creates a TermTokenizer with a custom stop word set
func NewTermTokenizerWithConfig(stops map[string]Empty) TermTokenizer {
	if stops == nil {
		stops = make(map[string]Empty)
	}
	return &termTokenizer{
		stops:       stops,
		wordPattern: regexp.MustCompile(`[\p{L}\p{N}]+`),
	}
}

// NewTermTokenizerWithStopWords merges stop words from a file (one per line,
// '#' comments) into the defaults
func NewTermTokenizerWithStopWords(stopWordsPath string) (TermTokenizer, error) {
	stops := defaultTermStopWords()
	if stopWordsPath != "" {
		custom, err := loadStopWordsFromFile(stopWordsPath)
		if err != nil {
			return nil, err
		}
		for word := range custom {
			stops[strings.ToLower(word)] = Empty{}
		}
	}
	return NewTermTokenizerWithConfig(stops), nil
}

// Tokenize splits a surface term into lower-cased tokens without stop words
func (tt *termTokenizer) Tokenize(term string) []string {
	if strings.TrimSpace(term) == "" {
		return []string{}
	}

	var tokens []string
	if containsHan(term) {
		tokens = tt.segmentHan(term)
	} else {
		tokens = tt.wordPattern.FindAllString(strings.ToLower(term), -1)
	}

	return tt.filterTokens(tokens)
}

// TokenizeBatch tokenizes several terms
func (tt *termTokenizer) TokenizeBatch(terms []string) [][]string {
	results := make([][]string, len(terms))
	for i, term := range terms {
		results[i] = tt.Tokenize(term)
	}
	return results
}

// segmentHan segments mixed Han/Latin text; the dictionary is loaded on first use
func (tt *termTokenizer) segmentHan(text string) []string {
	tt.segOnce.Do(func() {
		_ = tt.seg.LoadDict()
	})

	segments := tt.seg.Segment([]byte(text))
	tokens := make([]string, 0, len(segments))
	for _, segment := range segments {
		token := strings.TrimSpace(segment.Token().Text())
		if token == "" || isPunctuation(token) {
			continue
		}
		if containsHan(token) {
			tokens = append(tokens, token)
			continue
		}
		// Latin runs inside Han text still split on letters and digits
		tokens = append(tokens, tt.wordPattern.FindAllString(strings.ToLower(token), -1)...)
	}
	return tokens
}

func (tt *termTokenizer) filterTokens(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if _, isStop := tt.stops[token]; isStop {
			continue
		}
		filtered = append(filtered, token)
	}
	return filtered
}

func containsHan(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// isPunctuation checks if a token is purely punctuation
func isPunctuation(token string) bool {
	for _, r := range token {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// defaultTermStopWords are function words that carry no meaning in clinical
// terms. Words like "no" or "without" are kept on purpose.
func defaultTermStopWords() map[string]Empty {
	stopWords := []string{
		"a", "an", "and", "as", "at", "by", "for", "from", "in", "of", "on", "or", "the", "to", "nos",
		"der", "die", "das", "des", "dem", "den", "und", "oder", "mit", "von", "im", "bei",
		"的", "和", "或",
	}

	stopWordsMap := make(map[string]Empty)
	for _, word := range stopWords {
		stopWordsMap[word] = Empty{}
	}
	return stopWordsMap
}

// loadStopWordsFromFile loads stop words from a text file (one word per line)
func loadStopWordsFromFile(path string) (map[string]Empty, error) {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stopWords := make(map[string]Empty)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" && !strings.HasPrefix(word, "#") { // Skip empty lines and comments
			stopWords[word] = Empty{}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return stopWords, nil
}
