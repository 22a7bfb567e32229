package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

const (
	// ChunkerVersion changes whenever chunk boundaries would change for the same input.
	ChunkerVersion = "v2.0"
	// RunesPerToken approximates token counts from rune counts.
	RunesPerToken = 4.0
)

// Report summarizes an IngestDir run.
type Report struct {
	Files     int             `json:"files"`
	Ingested  int             `json:"ingested"`
	Unchanged int             `json:"unchanged"`
	Chunks    int             `json:"chunks"`
	Failed    []FailedFile    `json:"failed,omitempty"`
	Tokens    ChunkTokenStats `json:"chunk_token_stats"`
	// IndexVersion identifies chunker, embedding model and chunk sizes.
	IndexVersion string `json:"index_version"`

	tokenCounts []int
}

// FailedFile is a file IngestDir could not ingest.
type FailedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ChunkTokenStats contains estimated token counts of the chunks written in a run.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func newReport(opts Options) *Report {
	return &Report{IndexVersion: IndexVersion(opts.EmbeddingModel)}
}

func (r *Report) add(res *FileResult) {
	r.Files++
	if res.Unchanged {
		r.Unchanged++
		return
	}
	r.Ingested++
	r.Chunks += len(res.Chunks)
	for _, c := range res.Chunks {
		r.tokenCounts = append(r.tokenCounts, estimateTokens(c.Text))
	}
}

func (r *Report) addFailure(path string, err error) {
	r.Files++
	r.Failed = append(r.Failed, FailedFile{Path: path, Error: err.Error()})
}

func (r *Report) finish() {
	r.Tokens = computeTokenStats(r.tokenCounts)
}

// IndexVersion hashes the parameters that determine stored vectors.
func IndexVersion(embeddingModel string) string {
	input := fmt.Sprintf("%s|%s|minChunkSize=%d|maxChunkSize=%d", ChunkerVersion, embeddingModel, minChunkSize, maxChunkSize)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}

func estimateTokens(s string) int {
	return max(1, int(math.Round(float64(utf8.RuneCountInString(s))/RunesPerToken)))
}

// computeTokenStats computes min, max, mean and p95 of token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	p95Index = min(max(p95Index, 0), len(sorted)-1)

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
