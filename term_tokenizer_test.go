package embeddingbench

import (
	"reflect"
	"slices"
	"sync"
	"testing"
)

func TestNewTermTokenizer(t *testing.T) {
	tokenizer := NewTermTokenizer()
	if tokenizer == nil {
		t.Fatal("Expected non-nil TermTokenizer")
	}
}

func TestTermTokenizer_Tokenize_English(t *testing.T) {
	tokenizer := NewTermTokenizer()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple term",
			input:    "Myocardial Infarction",
			expected: []string{"myocardial", "infarction"},
		},
		{
			name:     "stop words removed",
			input:    "Carcinoma of the lung",
			expected: []string{"carcinoma", "lung"},
		},
		{
			name:     "punctuation and NOS",
			input:    "Diabetes mellitus, type 2, NOS",
			expected: []string{"diabetes", "mellitus", "type", "2"},
		},
		{
			name:     "negation kept",
			input:    "Headache without aura",
			expected: []string{"headache", "without", "aura"},
		},
		{
			name:     "hyphenated",
			input:    "non-small-cell",
			expected: []string{"non", "small", "cell"},
		},
		{
			name:     "German function words",
			input:    "Entzündung der Lunge",
			expected: []string{"entzündung", "lunge"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tokenizer.Tokenize(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Tokenize() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestTermTokenizer_Tokenize_EdgeCases(t *testing.T) {
	tokenizer := NewTermTokenizer()

	for _, input := range []string{"", "   ", "...", "of the"} {
		result := tokenizer.Tokenize(input)
		if len(result) != 0 {
			t.Errorf("Tokenize(%q) = %v, expected no tokens", input, result)
		}
	}
}

func TestTermTokenizer_Tokenize_Han(t *testing.T) {
	tokenizer := NewTermTokenizer()

	result := tokenizer.Tokenize("你好世界 Aspirin")
	for _, expected := range []string{"你好", "世界", "aspirin"} {
		if !slices.Contains(result, expected) {
			t.Errorf("Expected token '%s' not found in result %v", expected, result)
		}
	}

	// "的" is a stop word
	if slices.Contains(tokenizer.Tokenize("我的世界"), "的") {
		t.Error("Expected stop word '的' to be filtered")
	}
}

func TestTermTokenizer_TokenizeBatch(t *testing.T) {
	tokenizer := NewTermTokenizer()
	inputs := []string{"heart attack", "", "Fever"}

	results := tokenizer.TokenizeBatch(inputs)
	if len(results) != len(inputs) {
		t.Fatalf("TokenizeBatch() returned %d results, expected %d", len(results), len(inputs))
	}
	if !reflect.DeepEqual(results[0], []string{"heart", "attack"}) {
		t.Errorf("Unexpected first result %v", results[0])
	}
	if len(results[1]) != 0 {
		t.Errorf("Expected no tokens for empty term, got %v", results[1])
	}
	if !reflect.DeepEqual(results[2], []string{"fever"}) {
		t.Errorf("Unexpected third result %v", results[2])
	}
}

func TestTermTokenizer_CustomStopWords(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "stop_words.txt", "# clinical fillers\nacute\n\nChronic\n")

	tokenizer, err := NewTermTokenizerWithStopWords(path)
	if err != nil {
		t.Fatalf("NewTermTokenizerWithStopWords failed: %v", err)
	}

	result := tokenizer.Tokenize("Acute chronic bronchitis of the lung")
	expected := []string{"bronchitis", "lung"}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Tokenize() = %v, expected %v", result, expected)
	}

	if _, err := NewTermTokenizerWithStopWords("/nonexistent/stop_words.txt"); err == nil {
		t.Error("Expected an error for a missing stop word file")
	}

	plain := NewTermTokenizerWithConfig(nil)
	if got := plain.Tokenize("the lung"); !reflect.DeepEqual(got, []string{"the", "lung"}) {
		t.Errorf("Expected no stop words to be removed, got %v", got)
	}
}

func TestTermTokenizer_ConcurrentAccess(t *testing.T) {
	tokenizer := NewTermTokenizer()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for range 20 {
				if id%2 == 0 {
					tokenizer.Tokenize("心脏病 heart disease")
				} else {
					tokenizer.Tokenize("chronic kidney disease")
				}
			}
		}(i)
	}
	wg.Wait()
}
