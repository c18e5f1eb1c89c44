// Package pgvector is a VectorIndex stored in PostgreSQL with the pgvector
// extension.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"sarthi/internal/domain"
	"sarthi/internal/logger"
	"sarthi/internal/vectorstore"
)

// DefaultTable is used when no table is configured.
const DefaultTable = "faq_entries"

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// DB is the subset of *pgxpool.Pool the index uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Index keeps entries in one table with an embedding vector column. The
// table is created on the first write, sized to the first vector.
type Index struct {
	db       DB
	table    string
	embedder domain.Embedder
	log      *zap.Logger

	mu    sync.Mutex
	ready bool
}

// Connect opens a pgx pool for dsn.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return pool, nil
}

// NewIndex creates an index over db. The embedder must not be corpus-fitted.
func NewIndex(db DB, table string, embedder domain.Embedder, log *zap.Logger) (*Index, error) {
	if vectorstore.IsCorpusFitted(embedder) {
		return nil, fmt.Errorf("pgvector index needs a stable embedder, got %s", embedder.Name())
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Index{db: db, table: table, embedder: embedder, log: logger.OrNop(log)}, nil
}

func (s *Index) ensureTable(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if _, err := s.db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id text PRIMARY KEY,
		question text NOT NULL,
		answer text NOT NULL,
		kind text NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`, s.table, dimension)
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	if _, err := s.db.Exec(ctx, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_question_idx ON %s (question)", s.table, s.table)); err != nil {
		return fmt.Errorf("creating question index: %w", err)
	}
	s.ready = true
	s.log.Info("pgvector table ready", zap.String("table", s.table), zap.Int("dimension", dimension))
	return nil
}

// Add embeds entries and upserts them by ID in one batch.
func (s *Index) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := vectorstore.Validate(entries); err != nil {
		return err
	}
	vecs := make([]pgvector.Vector, len(entries))
	dim := 0
	for i, e := range entries {
		v, err := s.embedder.Embed(ctx, vectorstore.Text(e))
		if err != nil {
			return fmt.Errorf("embedding entry %s: %w", e.ID, err)
		}
		dim = len(v)
		vecs[i] = pgvector.NewVector(vectorstore.Float32(v))
	}
	if err := s.ensureTable(ctx, dim); err != nil {
		return err
	}

	upsert := fmt.Sprintf(`INSERT INTO %s (id, question, answer, kind, embedding) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET question = EXCLUDED.question, answer = EXCLUDED.answer,
		kind = EXCLUDED.kind, embedding = EXCLUDED.embedding`, s.table)
	b := &pgx.Batch{}
	for i, e := range entries {
		b.Queue(upsert, e.ID, e.Question, e.Answer, string(e.Kind), vecs[i])
	}
	if err := s.db.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("inserting entries: %w", err)
	}
	return nil
}

// Query returns up to k entries ordered by cosine distance (the <=> operator).
func (s *Index) Query(ctx context.Context, text string, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	sql := fmt.Sprintf(`SELECT id, question, answer, kind, embedding <=> $1 AS distance
		FROM %s ORDER BY embedding <=> $1 LIMIT $2`, s.table)
	rows, err := s.db.Query(ctx, sql, pgvector.NewVector(vectorstore.Float32(v)), k)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying %s: %w", s.table, err)
	}
	defer rows.Close()

	var hits []domain.Hit
	for rows.Next() {
		var h domain.Hit
		var kind string
		if err := rows.Scan(&h.Entry.ID, &h.Entry.Question, &h.Entry.Answer, &kind, &h.Distance); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		h.Entry.Kind = domain.EntryKind(kind)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, err
	}
	return hits, nil
}

// Delete removes every row whose question equals filter.Question.
func (s *Index) Delete(ctx context.Context, filter domain.Filter) (int, error) {
	if filter.Question == "" {
		return 0, vectorstore.ErrEmptyFilter
	}
	tag, err := s.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE question = $1", s.table), filter.Question)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("deleting from %s: %w", s.table, err)
	}
	return int(tag.RowsAffected()), nil
}

// Get returns every row passing filter, oldest first.
func (s *Index) Get(ctx context.Context, filter *domain.Filter) ([]domain.IndexEntry, error) {
	sql := fmt.Sprintf("SELECT id, question, answer, kind FROM %s", s.table)
	var args []any
	if filter != nil {
		sql += " WHERE question = $1"
		args = append(args, filter.Question)
	}
	sql += " ORDER BY created_at, id"
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", s.table, err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.IndexEntry, error) {
		var e domain.IndexEntry
		var kind string
		err := row.Scan(&e.ID, &e.Question, &e.Answer, &kind)
		e.Kind = domain.EntryKind(kind)
		return e, err
	})
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}
