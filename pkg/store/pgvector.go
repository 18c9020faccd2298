package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/xhad/coverletter/internal/models"
	"github.com/xhad/coverletter/internal/types"
	"github.com/xhad/coverletter/pkg/logger"
)

const undefinedTable = "42P01"

var unsafeIdent = regexp.MustCompile(`[^a-z0-9_]+`)

type VectorStoreConfig struct {
	ConnString  string
	TablePrefix string
	VectorDim   int
}

// VectorStore keeps one pgvector table per index name.
type VectorStore struct {
	config  VectorStoreConfig
	pool    *pgxpool.Pool
	builder builder
	logger  *zap.Logger
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig, splitter types.Splitter, embedder types.Embedder, log *zap.Logger) (*VectorStore, error) {
	if config.TablePrefix == "" {
		config.TablePrefix = "coverletter"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	b, err := newBuilder(splitter, embedder)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config:  config,
		pool:    pool,
		builder: b,
		logger:  logger.OrNop(log),
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create vector extension: %w", err)
	}

	return vs, nil
}

// TableName maps an index name to a sanitized table name.
func TableName(prefix, name string) string {
	name = unsafeIdent.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(prefix+"_"+name, "_")
}

func (vs *VectorStore) table(name string) string {
	return pgx.Identifier{TableName(vs.config.TablePrefix, name)}.Sanitize()
}

// LoadOrBuild returns the table-backed index for name, building it when the table is
// missing, empty or unreadable.
func (vs *VectorStore) LoadOrBuild(ctx context.Context, text, name string) (types.Index, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	log := vs.logger.With(zap.String(logger.FieldCollection, name))
	table := vs.table(name)

	var count int
	err := vs.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&count)
	switch {
	case err == nil && count > 0:
		log.Debug("loaded index", zap.Int("chunks", count))
		return &pgIndex{name: name, table: table, size: count, pool: vs.pool}, nil
	case err != nil && !isUndefinedTable(err):
		log.Warn("failed to load index, rebuilding", zap.Error(err))
	}

	chunks, vectors, err := vs.builder.chunkAndEmbed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("build index %q: %w", name, err)
	}
	if err := vs.store(ctx, table, chunks, vectors); err != nil {
		return nil, fmt.Errorf("save index %q: %w", name, err)
	}

	log.Info("built index", zap.Int("chunks", len(chunks)))
	return &pgIndex{name: name, table: table, size: len(chunks), pool: vs.pool}, nil
}

// Remove drops the table backing name.
func (vs *VectorStore) Remove(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if _, err := vs.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", vs.table(name))); err != nil {
		return fmt.Errorf("remove index %q: %w", name, err)
	}
	return nil
}

func (vs *VectorStore) store(ctx context.Context, table string, chunks []string, vectors [][]float32) error {
	dim := vs.config.VectorDim
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE %s (
			id TEXT PRIMARY KEY,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, table, dim)
	if _, err := tx.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (id, chunk_index, content, embedding) VALUES ($1, $2, $3, $4)`, table)
	for i, chunk := range chunks {
		if _, err := tx.Exec(ctx, stmt, uuid.NewString(), i, sanitizeUTF8(chunk), pgvector.NewVector(vectors[i])); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

type pgIndex struct {
	name  string
	table string
	size  int
	pool  *pgxpool.Pool
}

func (ix *pgIndex) Name() string { return ix.name }

func (ix *pgIndex) Len() int { return ix.size }

// Search orders by pgvector's cosine distance operator.
func (ix *pgIndex) Search(ctx context.Context, vector []float32, k int) ([]models.Match, error) {
	if k <= 0 || ix.size == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT content, embedding <=> $1 AS distance
		FROM %s
		ORDER BY distance, chunk_index
		LIMIT $2`, ix.table)

	rows, err := ix.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query index %q: %w", ix.name, err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.Content, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}

func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}
