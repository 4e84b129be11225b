package embeddingbench

import (
	"errors"
	"path/filepath"
	"testing"
)

const testOntologyYAML = `
categories:
  C1: [Pharmacologic Substance]
  C2: [Disease or Syndrome, Finding]
relations:
  may_treat:
    C1: [C2, C3, C2]
  cause:
    C3: [C2]
assessments:
  mayo_srs:
    C1: {C2: 0.5}
terms:
  C4: [heart attack, myocardial infarction]
`

func TestParseOntology(t *testing.T) {
	o, err := ParseOntology([]byte(testOntologyYAML))
	if err != nil {
		t.Fatalf("ParseOntology failed: %v", err)
	}

	if len(o.Categories) != 2 {
		t.Errorf("Expected 2 categorised concepts, got %d", len(o.Categories))
	}
	if !o.MayTreat().Holds("C1", "C3") {
		t.Error("Expected C1 may_treat C3")
	}
	if o.MayTreat().Holds("C2", "C1") {
		t.Error("Relations are directed")
	}
	if !o.HasTreatmentRelations() || !o.HasCausalRelations() {
		t.Error("Expected treatment and causal relations")
	}
	if len(o.MayPrevent()) != 0 || len(o.Associations()) != 0 {
		t.Error("Expected absent relations to be empty")
	}

	if _, ok := o.Assessment(MayoSRS); !ok {
		t.Error("Expected mayo_srs dataset")
	}
	if _, ok := o.Assessment(RelatednessCont); ok {
		t.Error("Expected no relatedness_cont dataset")
	}

	ids := o.ConceptIDs()
	want := []string{"C1", "C2", "C4"}
	if len(ids) != len(want) {
		t.Fatalf("Expected concept ids %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected concept ids %v, got %v", want, ids)
			break
		}
	}
}

func TestParseOntology_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "categories: [unterminated"},
		{"unknown assessment kind", "assessments:\n  wordsim: {a: {b: 1}}\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOntology([]byte(tc.content))
			if !errors.Is(err, ErrInvalidOntology) {
				t.Errorf("Expected ErrInvalidOntology, got %v", err)
			}
		})
	}
}

func TestRelationDictionary_Pairs(t *testing.T) {
	rd := RelationDictionary{
		"B": {"Z", "Y", "Z"},
		"A": {"X"},
	}

	pairs := rd.Pairs()
	want := []ConceptPair{{"A", "X"}, {"B", "Y"}, {"B", "Z"}}
	if len(pairs) != len(want) {
		t.Fatalf("Expected %v, got %v", want, pairs)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("Expected pair %d to be %v, got %v", i, want[i], pairs[i])
		}
	}

	// Pairs does not reorder the stored lists
	if rd["B"][0] != "Z" {
		t.Errorf("Pairs modified the dictionary: %v", rd["B"])
	}

	inverse := rd.Inverse()
	if !inverse.Holds("Z", "B") || !inverse.Holds("X", "A") {
		t.Errorf("Unexpected inverse %v", inverse)
	}
	if len(inverse["Z"]) != 1 {
		t.Errorf("Expected inverse lists without duplicates, got %v", inverse["Z"])
	}
}

func TestLoadOntology_Merge(t *testing.T) {
	tmpDir := t.TempDir()
	first := writeTestFile(t, tmpDir, "first.yaml", `
categories:
  C1: [Finding]
relations:
  may_treat:
    C1: [C2]
assessments:
  relatedness_cont:
    C1: {C2: 0.4}
`)
	second := writeTestFile(t, tmpDir, "second.yaml", `
categories:
  C1: [Finding, Disease or Syndrome]
  C5: [Clinical Drug]
relations:
  may_treat:
    C1: [C2, C3]
assessments:
  relatedness_cont:
    C1: {C2: 0.6}
`)

	o, err := LoadOntology(first, second)
	if err != nil {
		t.Fatalf("LoadOntology failed: %v", err)
	}

	if got := o.Categories["C1"]; len(got) != 2 {
		t.Errorf("Expected merged categories without duplicates, got %v", got)
	}
	if len(o.Categories) != 2 {
		t.Errorf("Expected 2 categorised concepts, got %d", len(o.Categories))
	}
	if got := o.MayTreat()["C1"]; len(got) != 2 {
		t.Errorf("Expected merged relation targets, got %v", got)
	}

	// Later bundles win for assessment scores
	dataset, _ := o.Assessment(RelatednessCont)
	if dataset["C1"]["C2"] != 0.6 {
		t.Errorf("Expected later score 0.6, got %f", dataset["C1"]["C2"])
	}
	if dataset.PairCount() != 1 {
		t.Errorf("Expected 1 judged pair, got %d", dataset.PairCount())
	}
}

func TestLoadOntology_Errors(t *testing.T) {
	if _, err := LoadOntology(); err != ErrEmptyInput {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}

	if _, err := LoadOntology(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing bundle")
	}
}
