// Package redisindex is a VectorIndex kept in Redis hashes. Ranking happens
// in the process, which suits knowledge bases of a few thousand entries.
package redisindex

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sarthi/internal/domain"
	"sarthi/internal/logger"
	"sarthi/internal/vectorstore"
)

// DefaultPrefix namespaces every key the index writes.
const DefaultPrefix = "sarthi:faq"

const (
	fieldAnswer    = "answer"
	fieldEmbedding = "embedding"
)

// ErrBadVector is returned when a stored embedding cannot be decoded.
var ErrBadVector = errors.New("malformed stored embedding")

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Connect creates a client and pings the server.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Index stores one hash per entry under <prefix>:entry:<id> and keeps the
// IDs in the sorted set <prefix>:ids, scored by the insertion counter
// <prefix>:seq.
type Index struct {
	client   redis.Cmdable
	prefix   string
	embedder domain.Embedder
	log      *zap.Logger
}

// NewIndex creates an index. The embedder must not be corpus-fitted.
func NewIndex(client redis.Cmdable, prefix string, embedder domain.Embedder, log *zap.Logger) (*Index, error) {
	if vectorstore.IsCorpusFitted(embedder) {
		return nil, fmt.Errorf("redis index needs a stable embedder, got %s", embedder.Name())
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Index{client: client, prefix: strings.TrimSuffix(prefix, ":"), embedder: embedder, log: logger.OrNop(log)}, nil
}

func (s *Index) idsKey() string            { return s.prefix + ":ids" }
func (s *Index) seqKey() string            { return s.prefix + ":seq" }
func (s *Index) entryKey(id string) string { return s.prefix + ":entry:" + id }

type record struct {
	entry  domain.IndexEntry
	vector []float64
}

// Add embeds entries and upserts them. Re-added IDs keep their position.
func (s *Index) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := vectorstore.Validate(entries); err != nil {
		return err
	}
	vecs := make([][]float64, len(entries))
	for i, e := range entries {
		v, err := s.embedder.Embed(ctx, vectorstore.Text(e))
		if err != nil {
			return fmt.Errorf("embedding entry %s: %w", e.ID, err)
		}
		vecs[i] = v
	}

	last, err := s.client.IncrBy(ctx, s.seqKey(), int64(len(entries))).Result()
	if err != nil {
		return fmt.Errorf("reserving sequence: %w", err)
	}
	first := last - int64(len(entries)) + 1
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for i, e := range entries {
			p.HSet(ctx, s.entryKey(e.ID),
				vectorstore.KeyEntryID, e.ID,
				vectorstore.KeyQuestion, e.Question,
				fieldAnswer, e.Answer,
				vectorstore.KeyKind, string(e.Kind),
				fieldEmbedding, encodeVector(vecs[i]),
			)
			p.ZAddNX(ctx, s.idsKey(), redis.Z{Score: float64(first + int64(i)), Member: e.ID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing entries: %w", err)
	}
	s.log.Debug("redis entries added", zap.Int("count", len(entries)))
	return nil
}

// load reads every stored entry, oldest first. Vectors are decoded only when
// withVectors is set; entries whose vector cannot be decoded are skipped.
func (s *Index) load(ctx context.Context, withVectors bool) ([]record, error) {
	ids, err := s.client.ZRange(ctx, s.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, s.entryKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	out := make([]record, 0, len(ids))
	for i, cmd := range cmds {
		m := cmd.Val()
		if len(m) == 0 {
			// ID left behind by a concurrent delete.
			continue
		}
		r := record{entry: domain.IndexEntry{
			ID:       ids[i],
			Question: m[vectorstore.KeyQuestion],
			Answer:   m[fieldAnswer],
			Kind:     domain.EntryKind(m[vectorstore.KeyKind]),
		}}
		if withVectors {
			if r.vector, err = decodeVector(m[fieldEmbedding]); err != nil {
				s.log.Warn("skipping redis entry", zap.String("id", ids[i]), zap.Error(err))
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// Query returns up to k entries ordered by ascending cosine distance.
func (s *Index) Query(ctx context.Context, text string, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	records, err := s.load(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	q, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	hits := make([]domain.Hit, len(records))
	for i, r := range records {
		hits[i] = domain.Hit{Entry: r.entry, Distance: vectorstore.CosineDistance(q, r.vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Delete removes every entry whose question equals filter.Question.
func (s *Index) Delete(ctx context.Context, filter domain.Filter) (int, error) {
	if filter.Question == "" {
		return 0, vectorstore.ErrEmptyFilter
	}
	matched, err := s.Get(ctx, &filter)
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		return 0, nil
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		members := make([]any, len(matched))
		for i, e := range matched {
			p.Del(ctx, s.entryKey(e.ID))
			members[i] = e.ID
		}
		p.ZRem(ctx, s.idsKey(), members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting entries: %w", err)
	}
	s.log.Debug("redis entries deleted", zap.String("question", filter.Question), zap.Int("count", len(matched)))
	return len(matched), nil
}

// Get returns every stored entry passing filter, oldest first.
func (s *Index) Get(ctx context.Context, filter *domain.Filter) ([]domain.IndexEntry, error) {
	records, err := s.load(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.IndexEntry, 0, len(records))
	for _, r := range records {
		if vectorstore.Matches(r.entry, filter) {
			out = append(out, r.entry)
		}
	}
	return out, nil
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float64) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(x)))
	}
	return buf
}

func decodeVector(s string) ([]float64, error) {
	if len(s)%4 != 0 {
		return nil, ErrBadVector
	}
	b := []byte(s)
	out := make([]float64, len(b)/4)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])))
	}
	return out, nil
}
