package vectorstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaTemplate string

// DefaultQueryTimeout bounds each store round trip.
const DefaultQueryTimeout = 10 * time.Second

var _ Store = (*PGStore)(nil)

// PGOptions configures a PGStore.
type PGOptions struct {
	DatabaseURL  string
	Dimensions   int
	QueryTimeout time.Duration
	// Migrate creates the extension, tables and indexes when missing.
	Migrate bool
}

// PGStore stores documents in PostgreSQL with the pgvector extension.
// Job queries use the HNSW index, so results are approximate nearest neighbors.
type PGStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	logger       *zap.Logger
}

// SchemaSQL returns the DDL for vectors of the given dimensions.
func SchemaSQL(dimensions int) string {
	return strings.ReplaceAll(schemaTemplate, "{{dimensions}}", strconv.Itoa(dimensions))
}

// ConnectPG opens a connection pool with the pgvector types registered on
// every connection.
func ConnectPG(ctx context.Context, opts PGOptions, logger *zap.Logger) (*PGStore, error) {
	if opts.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("vector dimensions must be positive")
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// The vector type must exist before the pool can register its codec.
	if opts.Migrate {
		if err := migrate(ctx, opts.DatabaseURL, opts.Dimensions); err != nil {
			return nil, err
		}
		logger.Debug("vector store schema ensured", zap.Int("dimensions", opts.Dimensions))
	}

	cfg, err := pgxpool.ParseConfig(opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGStore{pool: pool, queryTimeout: opts.QueryTimeout, logger: logger}, nil
}

func migrate(ctx context.Context, databaseURL string, dimensions int) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if _, err := conn.Exec(ctx, SchemaSQL(dimensions)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PGStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PGStore) UpsertCV(ctx context.Context, p *types.CVProfile) error {
	if err := validateCV(p); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO cv_profiles (user_id, raw_text, normalized_text, skills, experience_years,
		                          last_title, embedding, embedding_model, source_location, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (user_id) DO UPDATE SET
		     raw_text = EXCLUDED.raw_text,
		     normalized_text = EXCLUDED.normalized_text,
		     skills = EXCLUDED.skills,
		     experience_years = EXCLUDED.experience_years,
		     last_title = EXCLUDED.last_title,
		     embedding = EXCLUDED.embedding,
		     embedding_model = EXCLUDED.embedding_model,
		     source_location = EXCLUDED.source_location,
		     created_at = EXCLUDED.created_at`,
		p.UserID, p.RawText, p.NormalizedText, nonNil(p.Skills), p.ExperienceYears,
		p.LastTitle, pgvector.NewVector(p.Embedding.Values), p.Embedding.Model, p.SourceLocation, p.CreatedAt,
	)
	if err != nil {
		return classify("upsert cv", p.UserID, err)
	}
	return nil
}

func (s *PGStore) GetCV(ctx context.Context, userID string) (*types.CVProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var p types.CVProfile
	var vec pgvector.Vector

	err := s.pool.QueryRow(ctx,
		`SELECT user_id, raw_text, normalized_text, skills, experience_years, last_title,
		        embedding, embedding_model, source_location, created_at
		 FROM cv_profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.RawText, &p.NormalizedText, &p.Skills, &p.ExperienceYears, &p.LastTitle,
		&vec, &p.Embedding.Model, &p.SourceLocation, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get cv", userID, err)
	}

	p.Embedding.Values = vec.Slice()
	return &p, nil
}

func (s *PGStore) DeleteCV(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM cv_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return false, classify("delete cv", userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) UpsertJob(ctx context.Context, j *types.JobListing) error {
	if err := validateJob(j); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_listings (job_id, title, company, description, skills_required, experience_level,
		                           location, source_url, salary_range, embedding, embedding_model, scraped_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (job_id) DO UPDATE SET
		     title = EXCLUDED.title,
		     company = EXCLUDED.company,
		     description = EXCLUDED.description,
		     skills_required = EXCLUDED.skills_required,
		     experience_level = EXCLUDED.experience_level,
		     location = EXCLUDED.location,
		     source_url = EXCLUDED.source_url,
		     salary_range = EXCLUDED.salary_range,
		     embedding = EXCLUDED.embedding,
		     embedding_model = EXCLUDED.embedding_model,
		     scraped_at = EXCLUDED.scraped_at`,
		j.JobID, j.Title, j.Company, j.Description, nonNil(j.RequiredSkills), string(j.ExperienceLevel),
		j.Location, j.SourceURL, j.SalaryRange, pgvector.NewVector(j.Embedding.Values), j.Embedding.Model, j.ScrapedAt,
	)
	if err != nil {
		return classify("upsert job", j.JobID, err)
	}
	return nil
}

func (s *PGStore) QueryJobs(ctx context.Context, vec types.Vector, k int) ([]types.Candidate, error) {
	if err := validateQuery(vec, k); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT job_id, title, company, description, skills_required, experience_level,
		        location, source_url, salary_range, embedding, embedding_model, scraped_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM job_listings
		 WHERE embedding IS NOT NULL AND embedding_model = $2 AND vector_dims(embedding) = $3
		 ORDER BY embedding <=> $1
		 LIMIT $4`,
		pgvector.NewVector(vec.Values), vec.Model, len(vec.Values), k,
	)
	if err != nil {
		return nil, classify("query jobs", "", err)
	}
	defer rows.Close()

	var candidates []types.Candidate
	for rows.Next() {
		var j types.JobListing
		var level string
		var emb pgvector.Vector
		var similarity float64

		if err := rows.Scan(&j.JobID, &j.Title, &j.Company, &j.Description, &j.RequiredSkills, &level,
			&j.Location, &j.SourceURL, &j.SalaryRange, &emb, &j.Embedding.Model, &j.ScrapedAt, &similarity); err != nil {
			return nil, classify("scan job", "", err)
		}

		j.ExperienceLevel = types.ExperienceLevel(level)
		j.Embedding.Values = emb.Slice()
		candidates = append(candidates, types.Candidate{Job: &j, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query jobs", "", err)
	}

	return candidates, nil
}

func (s *PGStore) Health(ctx context.Context) (*Health, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	h := &Health{Status: StatusOK, Driver: "postgres", DocumentCounts: map[string]int64{}}

	var cvCount, jobCount, missing int64
	err := s.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM cv_profiles),
		        (SELECT COUNT(*) FROM job_listings),
		        (SELECT COUNT(*) FROM job_listings WHERE embedding IS NULL)`,
	).Scan(&cvCount, &jobCount, &missing)
	if err != nil {
		s.logger.Warn("vector store health check failed", zap.Error(err))
		h.Status = StatusDegraded
		h.Error = err.Error()
		return h, nil
	}

	h.DocumentCounts[IndexCV] = cvCount
	h.DocumentCounts[IndexJob] = jobCount
	h.JobsMissingEmbeddings = missing
	return h, nil
}

// classify wraps err, marking timeouts and retry-safe connection failures transient.
func classify(op, key string, err error) error {
	wrapped := &StoreError{Op: op, Key: key, Cause: err}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return &types.TransientError{Op: "vector store " + op, Cause: wrapped}
	}
	return wrapped
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
