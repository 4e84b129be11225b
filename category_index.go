package embeddingbench

import (
	"slices"
	"sort"
)

// CategoryIndex holds concept <-> category mappings restricted to one
// embedding's vocabulary. Every concept key is in the vocabulary. Concept and
// category lists are sorted so that iteration is deterministic.
type CategoryIndex struct {
	conceptCategories map[string][]string
	categoryConcepts  map[string][]string
	categories        []string
	ontologySizes     map[string]int // category -> concept count before vocabulary filtering
}

// NewCategoryIndex derives the index from source, keeping only concepts emb contains
func NewCategoryIndex(source CategorySource, emb Embedding) (*CategoryIndex, error) {
	if source == nil {
		return nil, ErrMissingSource
	}

	idx := &CategoryIndex{
		conceptCategories: make(map[string][]string),
		categoryConcepts:  make(map[string][]string),
		ontologySizes:     make(map[string]int),
	}

	for concept, categories := range source.ConceptCategories() {
		unique := slices.Clone(categories)
		sort.Strings(unique)
		unique = slices.Compact(unique)

		for _, category := range unique {
			idx.ontologySizes[category]++
		}
		if !emb.Contains(concept) || len(unique) == 0 {
			continue
		}
		idx.conceptCategories[concept] = unique
	}

	idx.categoryConcepts = invert(idx.conceptCategories)
	idx.categories = make([]string, 0, len(idx.categoryConcepts))
	for category := range idx.categoryConcepts {
		idx.categories = append(idx.categories, category)
	}
	sort.Strings(idx.categories)

	return idx, nil
}

// invert reverses a list-valued map; value lists come out sorted
func invert(m map[string][]string) map[string][]string {
	inverted := make(map[string][]string)
	for key, values := range m {
		for _, value := range values {
			inverted[value] = append(inverted[value], key)
		}
	}
	for _, keys := range inverted {
		sort.Strings(keys)
	}
	return inverted
}

// Categories returns every category with at least one in-vocabulary concept
func (idx *CategoryIndex) Categories() []string {
	return idx.categories
}

// Concepts returns the in-vocabulary concepts of a category
func (idx *CategoryIndex) Concepts(category string) []string {
	return idx.categoryConcepts[category]
}

// CategoriesOf returns the categories of an in-vocabulary concept
func (idx *CategoryIndex) CategoriesOf(concept string) ([]string, bool) {
	categories, ok := idx.conceptCategories[concept]
	return categories, ok
}

// HasCategory reports whether concept is assigned to category
func (idx *CategoryIndex) HasCategory(concept, category string) bool {
	_, found := slices.BinarySearch(idx.conceptCategories[concept], category)
	return found
}

// AllConcepts returns every in-vocabulary concept that has a category, sorted
func (idx *CategoryIndex) AllConcepts() []string {
	concepts := make([]string, 0, len(idx.conceptCategories))
	for concept := range idx.conceptCategories {
		concepts = append(concepts, concept)
	}
	sort.Strings(concepts)
	return concepts
}

// ConceptsOfCategories returns the sorted union of the concepts of the given categories
func (idx *CategoryIndex) ConceptsOfCategories(categories []string) []string {
	var union []string
	for _, category := range categories {
		union = append(union, idx.categoryConcepts[category]...)
	}
	sort.Strings(union)
	return slices.Compact(union)
}

// OntologySize returns how many concepts the ontology assigns to category,
// including those missing from the vocabulary
func (idx *CategoryIndex) OntologySize(category string) int {
	return idx.ontologySizes[category]
}

// Len returns the number of in-vocabulary categorised concepts
func (idx *CategoryIndex) Len() int {
	return len(idx.conceptCategories)
}
