package index

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
	"github.com/LexGuardAI/lexguard-mvp/pkg/llm"
)

const (
	vectorFile = "index.vec"
	metaFile   = "metadata.jsonl"

	// vecMagic identifies the vector file format.
	vecMagic = uint32(0x4c585643) // "LXVC"

	// DefaultEmbedBatch is the number of chunk texts per embedding request.
	// Batching is a throughput choice only: the built index is identical
	// regardless of batch size.
	DefaultEmbedBatch = 64
)

// Build embeds every chunk through embedder and returns the populated flat
// index. Row i of the index holds the vector for chunks[i].
func Build(ctx context.Context, chunks []domain.Chunk, embedder llm.Embedder, batchSize int) (*Flat, error) {
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatch
	}

	var flat *Flat
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Text
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("index: embed batch [%d:%d]: %w", start, end, err)
		}

		if flat == nil {
			if len(vectors) == 0 || len(vectors[0]) == 0 {
				return nil, errors.New("index: embedder returned no vectors")
			}
			if flat, err = NewFlat(len(vectors[0])); err != nil {
				return nil, err
			}
		}
		if err := flat.Add(vectors...); err != nil {
			return nil, err
		}
	}
	return flat, nil
}

// Save persists the index under <dir>/<name>/: the vector rows in index.vec
// and one JSON record per line in metadata.jsonl, in the same order vectors
// were added. The row/line pairing is the invariant every reader depends on.
func Save(dir, name string, flat *Flat, chunks []domain.Chunk) error {
	if flat.Len() != len(chunks) {
		return fmt.Errorf("index: %d vectors but %d chunks", flat.Len(), len(chunks))
	}

	out := filepath.Join(dir, name)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("index: create %s: %w", out, err)
	}

	if err := writeVectors(filepath.Join(out, vectorFile), flat); err != nil {
		return err
	}
	return writeMetadata(filepath.Join(out, metaFile), chunks)
}

// Load reads both artifacts back. A missing artifact means ingestion has not
// run yet and surfaces as ErrMissingIndex.
func Load(dir, name string) (*Flat, []domain.Chunk, error) {
	folder := filepath.Join(dir, name)

	flat, err := readVectors(filepath.Join(folder, vectorFile))
	if err != nil {
		return nil, nil, err
	}
	chunks, err := readMetadata(filepath.Join(folder, metaFile))
	if err != nil {
		return nil, nil, err
	}
	if flat.Len() != len(chunks) {
		return nil, nil, fmt.Errorf("index: %s has %d vectors but %d metadata records", name, flat.Len(), len(chunks))
	}
	return flat, chunks, nil
}

func writeVectors(path string, flat *Flat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("index: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	header := []uint32{vecMagic, uint32(flat.dim), uint32(flat.Len())}
	for _, h := range header {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return fmt.Errorf("index: write header: %w", err)
		}
	}
	for _, row := range flat.vectors {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			return fmt.Errorf("index: write vectors: %w", err)
		}
	}
	return w.Flush()
}

func readVectors(path string) (*Flat, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrMissingIndex
		}
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic, dim, count uint32
	for _, p := range []*uint32{&magic, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, fmt.Errorf("index: read header: %w", err)
		}
	}
	if magic != vecMagic {
		return nil, fmt.Errorf("index: %s is not a vector file", path)
	}

	flat, err := NewFlat(int(dim))
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		row := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("index: read row %d: %w", i, err)
		}
		if err := flat.Add(row); err != nil {
			return nil, err
		}
	}
	return flat, nil
}

func writeMetadata(path string, chunks []domain.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("index: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("index: encode record %d: %w", i, err)
		}
	}
	return w.Flush()
}

func readMetadata(path string) ([]domain.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrMissingIndex
		}
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	defer f.Close()

	var chunks []domain.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var c domain.Chunk
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("index: decode record %d: %w", len(chunks), err)
		}
		chunks = append(chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("index: read %s: %w", path, err)
	}
	return chunks, nil
}
