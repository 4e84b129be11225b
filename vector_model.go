package embeddingbench

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"unsafe"
)

var _ Embedding = (*vectorModel)(nil)

// vectorModel implements the Embedding interface with an insertion-ordered,
// hash-indexed vector matrix. Norms are cached so that nearest-neighbour scans
// only compute dot products.
type vectorModel struct {
	labels    EmbeddingLabels
	dimension int                 // Vector dimension
	index     map[string]int      // id -> row
	words     []string            // row -> id, insertion order
	vectors   [][]float32         // row -> vector
	norms     []float64           // row -> L2 norm
	mtx       sync.RWMutex        // guards the maps and slices above
	intern    map[string]string   // String interning for memory optimization
	memory    int64               // Cached memory usage in bytes

	// Statistics tracking
	totalLookups atomic.Int64
	oovLookups   atomic.Int64
}

// NewVectorModel creates an empty in-memory embedding
func NewVectorModel(dimension int, labels EmbeddingLabels) Embedding {
	return newVectorModel(dimension, labels)
}

func newVectorModel(dimension int, labels EmbeddingLabels) *vectorModel {
	return &vectorModel{
		labels:    labels,
		dimension: dimension,
		index:     make(map[string]int),
		intern:    make(map[string]string),
	}
}

// NewEmbeddingFromVectors builds an embedding from parallel id/vector slices.
// Duplicate ids overwrite earlier rows; every vector must have the same dimension.
func NewEmbeddingFromVectors(labels EmbeddingLabels, ids []string, vectors [][]float32) (Embedding, error) {
	if len(ids) == 0 || len(ids) != len(vectors) {
		return nil, ErrEmptyInput
	}

	vm := newVectorModel(len(vectors[0]), labels)
	if added := vm.AddVectorsBatch(ids, vectors); added != len(ids) {
		return nil, ErrDimensionMismatch
	}
	return vm, nil
}

// GetVector retrieves the vector for a single identifier.
// The returned slice is shared and must not be modified.
func (vm *vectorModel) GetVector(id string) ([]float32, bool) {
	vm.mtx.RLock()
	defer vm.mtx.RUnlock()

	vm.totalLookups.Add(1)
	row, exists := vm.index[id]
	if !exists {
		vm.oovLookups.Add(1)
		return nil, false
	}
	return vm.vectors[row], true
}

// Contains reports whether id is in the vocabulary
func (vm *vectorModel) Contains(id string) bool {
	vm.mtx.RLock()
	defer vm.mtx.RUnlock()
	_, ok := vm.index[id]
	return ok
}

// MostSimilar scans the whole vocabulary and keeps the topK best rows
func (vm *vectorModel) MostSimilar(query []float32, topK int) []Neighbor {
	vm.mtx.RLock()
	defer vm.mtx.RUnlock()
	return vm.scan(query, topK, -1)
}

// MostSimilarTo is MostSimilar for a vocabulary entry, skipping the entry itself
func (vm *vectorModel) MostSimilarTo(id string, topK int) ([]Neighbor, bool) {
	vm.mtx.RLock()
	defer vm.mtx.RUnlock()

	row, ok := vm.index[id]
	if !ok {
		return nil, false
	}
	return vm.scan(vm.vectors[row], topK, row), true
}

// scan is called with the read lock held
func (vm *vectorModel) scan(query []float32, topK int, skipRow int) []Neighbor {
	if topK <= 0 || len(query) != vm.dimension {
		return []Neighbor{}
	}

	queryNorm := norm(query)
	top := make([]Neighbor, 0, min(topK, len(vm.words)))

	for row, vector := range vm.vectors {
		if row == skipRow {
			continue
		}

		score := 0.0
		if queryNorm != 0 && vm.norms[row] != 0 {
			score = dot(query, vector) / (queryNorm * vm.norms[row])
		}
		if math.IsNaN(score) {
			score = 0
		}

		top = insertTopK(top, Neighbor{ID: vm.words[row], Score: score}, topK)
	}

	return top
}

// insertTopK keeps top sorted by descending score with at most k entries.
// A candidate never displaces an entry with an equal score.
func insertTopK(top []Neighbor, candidate Neighbor, k int) []Neighbor {
	if len(top) == k && candidate.Score <= top[k-1].Score {
		return top
	}

	pos := sort.Search(len(top), func(i int) bool { return top[i].Score < candidate.Score })
	if len(top) < k {
		top = append(top, Neighbor{})
	}
	copy(top[pos+1:], top[pos:len(top)-1])
	top[pos] = candidate
	return top
}

// Similarity returns the signed cosine similarity of two vocabulary entries
func (vm *vectorModel) Similarity(id1, id2 string) (float64, bool) {
	vm.mtx.RLock()
	defer vm.mtx.RUnlock()

	r1, ok1 := vm.index[id1]
	r2, ok2 := vm.index[id2]
	if !ok1 || !ok2 {
		return 0, false
	}
	if vm.norms[r1] == 0 || vm.norms[r2] == 0 {
		return 0, true
	}
	return dot(vm.vectors[r1], vm.vectors[r2]) / (vm.norms[r1] * vm.norms[r2]), true
}

// Vocabulary returns a copy of all ids in insertion order
func (vm *vectorModel) Vocabulary() []string {
	vm.mtx.RLock()
	defer vm.mtx.RUnlock()

	words := make([]string, len(vm.words))
	copy(words, vm.words)
	return words
}

// VocabularySize returns total number of ids in model
func (vm *vectorModel) VocabularySize() int {
	vm.mtx.RLock()
	defer vm.mtx.RUnlock()
	return len(vm.words)
}

// Dimension returns the vector dimension
func (vm *vectorModel) Dimension() int {
	return vm.dimension
}

// Labels returns the descriptive labels
func (vm *vectorModel) Labels() EmbeddingLabels {
	return vm.labels
}

// AddVector adds an id-vector pair to the model (used by EmbeddingLoader).
// Returns false if the vector has the wrong dimension.
func (vm *vectorModel) AddVector(id string, vector []float32) bool {
	vm.mtx.Lock()
	defer vm.mtx.Unlock()
	return vm.addLocked(id, vector)
}

// AddVectorsBatch adds multiple id-vector pairs in a single lock operation.
// Returns the number of vectors successfully added.
func (vm *vectorModel) AddVectorsBatch(ids []string, vectors [][]float32) int {
	if len(ids) != len(vectors) {
		return 0
	}

	vm.mtx.Lock()
	defer vm.mtx.Unlock()

	added := 0
	for i := range ids {
		if vm.addLocked(ids[i], vectors[i]) {
			added++
		}
	}
	return added
}

func (vm *vectorModel) addLocked(id string, vector []float32) bool {
	if len(vector) != vm.dimension {
		return false
	}

	// Store a copy to prevent external modification
	vectorCopy := make([]float32, len(vector))
	copy(vectorCopy, vector)

	if row, exists := vm.index[id]; exists {
		vm.vectors[row] = vectorCopy
		vm.norms[row] = norm(vectorCopy)
		return true
	}

	interned := vm.internString(id)
	vm.index[interned] = len(vm.words)
	vm.words = append(vm.words, interned)
	vm.vectors = append(vm.vectors, vectorCopy)
	vm.norms = append(vm.norms, norm(vectorCopy))
	vm.updateMemoryUsage(interned, vectorCopy)
	return true
}

// PreallocateCapacity preallocates capacity to reduce rehashing during loading
func (vm *vectorModel) PreallocateCapacity(expectedSize int) {
	vm.mtx.Lock()
	defer vm.mtx.Unlock()

	if len(vm.words) >= expectedSize {
		return
	}

	index := make(map[string]int, expectedSize)
	for k, v := range vm.index {
		index[k] = v
	}
	vm.index = index

	words := make([]string, len(vm.words), expectedSize)
	copy(words, vm.words)
	vm.words = words

	vectors := make([][]float32, len(vm.vectors), expectedSize)
	copy(vectors, vm.vectors)
	vm.vectors = vectors

	norms := make([]float64, len(vm.norms), expectedSize)
	copy(norms, vm.norms)
	vm.norms = norms
}

// internString returns the interned string from the pool or adds it if new
func (vm *vectorModel) internString(s string) string {
	if interned, exists := vm.intern[s]; exists {
		return interned
	}
	vm.intern[s] = s
	return s
}

// updateMemoryUsage is called with the lock already held
func (vm *vectorModel) updateMemoryUsage(id string, vector []float32) {
	// string header + data, slice header + data, norm, map overhead
	stringSize := int64(unsafe.Sizeof(id)) + int64(len(id))
	vectorSize := int64(unsafe.Sizeof(vector)) + int64(len(vector)*4)
	vm.memory += stringSize + vectorSize + 8 + 48
}

// MemoryUsage returns estimated memory usage in bytes
func (vm *vectorModel) MemoryUsage() int64 {
	vm.mtx.RLock()
	defer vm.mtx.RUnlock()
	return vm.memory
}

// OOVRate returns the rate of out-of-vocabulary lookups (0.0 to 1.0)
func (vm *vectorModel) OOVRate() float64 {
	total := vm.totalLookups.Load()
	if total == 0 {
		return 0.0
	}
	return float64(vm.oovLookups.Load()) / float64(total)
}

// ResetStats resets all statistics counters
func (vm *vectorModel) ResetStats() {
	vm.totalLookups.Store(0)
	vm.oovLookups.Store(0)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
