package embeddingbench

import (
	"fmt"
	"sort"
)

// vectorAdder is implemented by embeddings that accept new entries
type vectorAdder interface {
	AddVector(id string, vector []float32) bool
}

// ComposeConceptVectors adds a vector for every concept in terms that emb
// lacks. A surface term is usable when all of its tokens are in the
// vocabulary; its vector is the sum of the token vectors. The concept vector
// is the mean over its usable terms. Concepts without a usable term are left
// out. Returns the number of concepts added.
func ComposeConceptVectors(emb Embedding, terms map[string][]string, tokenizer TermTokenizer, logger Logger) (int, error) {
	adder, ok := emb.(vectorAdder)
	if !ok {
		return 0, fmt.Errorf("%w: embedding does not accept composed vectors", ErrInvalidConfiguration)
	}
	if tokenizer == nil {
		tokenizer = NewTermTokenizer()
	}
	logger = loggerOrDiscard(logger)

	concepts := make([]string, 0, len(terms))
	for concept := range terms {
		if !emb.Contains(concept) {
			concepts = append(concepts, concept)
		}
	}
	sort.Strings(concepts)

	added := 0
	for _, concept := range concepts {
		vector, ok := composeConcept(emb, terms[concept], tokenizer)
		if !ok {
			continue
		}
		if adder.AddVector(concept, vector) {
			added++
		}
	}

	logger.Infof("Composed concept vectors, embedding: %s, candidates: %d, added: %d",
		emb.Labels(), len(concepts), added)
	return added, nil
}

func composeConcept(emb Embedding, surfaceTerms []string, tokenizer TermTokenizer) ([]float32, bool) {
	dimension := emb.Dimension()
	sum := make([]float64, dimension)
	usable := 0

	for _, tokens := range tokenizer.TokenizeBatch(surfaceTerms) {
		termVector, ok := sumTokens(emb, tokens)
		if !ok {
			continue
		}
		for i, v := range termVector {
			sum[i] += v
		}
		usable++
	}
	if usable == 0 {
		return nil, false
	}

	vector := make([]float32, dimension)
	for i := range sum {
		vector[i] = float32(sum[i] / float64(usable))
	}
	return vector, true
}

func sumTokens(emb Embedding, tokens []string) ([]float64, bool) {
	if len(tokens) == 0 {
		return nil, false
	}
	sum := make([]float64, emb.Dimension())
	for _, token := range tokens {
		vector, ok := emb.GetVector(token)
		if !ok {
			return nil, false
		}
		for i, v := range vector {
			sum[i] += float64(v)
		}
	}
	return sum, true
}
