// Package similar looks up writing samples whose embeddings are nearest to a
// query vector.
package similar

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/r4z4/loanactors/core/cache"
)

// DefaultLimit is how many neighbours a lookup returns.
const DefaultLimit = 5

var (
	ErrNoEmbeddings = errors.New("no embeddings")
	ErrEmptyVector  = errors.New("empty embedding vector")
)

type Match struct {
	EntryName string `json:"entry_name"`
}

// Querier returns up to limit matches ordered by distance to vec.
type Querier interface {
	Nearest(ctx context.Context, vec []float32, limit int) ([]Match, error)
}

type QuerierFunc func(ctx context.Context, vec []float32, limit int) ([]Match, error)

func (f QuerierFunc) Nearest(ctx context.Context, vec []float32, limit int) ([]Match, error) {
	return f(ctx, vec, limit)
}

// Key derives a stable cache key for vec and limit.
func Key(vec []float32, limit int) string {
	h, _ := blake2b.New256(nil)
	var buf [4]byte
	for _, f := range vec {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint32(buf[:], uint32(limit))
	h.Write(buf[:])
	return "similar/" + hex.EncodeToString(h.Sum(nil))
}

// Cached wraps q with a result cache keyed by Key. Concurrent misses for
// the same key share one query. Keys do not identify q, so a cache must
// only ever front a single store. Callers get their own copy of the result.
func Cached(q Querier, c cache.TypedCache[[]Match], opts ...cache.PutOption) Querier {
	var group singleflight.Group
	return QuerierFunc(func(ctx context.Context, vec []float32, limit int) ([]Match, error) {
		key := Key(vec, limit)
		if m, ok := c.Get(key); ok {
			return slices.Clone(m), nil
		}
		v, err, _ := group.Do(key, func() (any, error) {
			m, err := q.Nearest(ctx, vec, limit)
			if err != nil {
				return nil, err
			}
			c.Put(key, m, opts...)
			return m, nil
		})
		if err != nil {
			return nil, err
		}
		return slices.Clone(v.([]Match)), nil
	})
}

// First returns the embedding a lookup is resolved with.
func First(embeddings [][]float32) ([]float32, error) {
	if len(embeddings) == 0 {
		return nil, ErrNoEmbeddings
	}
	if len(embeddings[0]) == 0 {
		return nil, ErrEmptyVector
	}
	return embeddings[0], nil
}

// Lookup queries the neighbours of the first embedding, which is how a batch
// of embeddings from one document is resolved.
func Lookup(ctx context.Context, q Querier, embeddings [][]float32, limit int) ([]Match, error) {
	vec, err := First(embeddings)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	m, err := q.Nearest(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest: %w", err)
	}
	return m, nil
}

// VectorLiteral renders vec in the pgvector text form, e.g. "[1,2.5,3]".
func VectorLiteral(vec []float32) string {
	b := make([]byte, 0, 2+len(vec)*8)
	b = append(b, '[')
	for i, f := range vec {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendFloat(b, float64(f), 'g', -1, 32)
	}
	return string(append(b, ']'))
}
