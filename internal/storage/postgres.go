package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bahjat/llm-readiness-checker/internal/model"
)

const analysisColumns = `id, user_id, url, created_at, score,
	has_json_api, has_text_api, has_markdown_api,
	has_rss_feed, has_atom_feed, has_json_feed,
	has_llms_txt, has_json_ld, has_semantic_html,
	has_server_side_rendering, has_meta_tags, has_sitemap, has_mcp_server,
	details`

// Postgres stores analyses and leads in PostgreSQL.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres connects to databaseURL and verifies the connection.
func NewPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 2 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected")
	return &Postgres{pool: pool, logger: logger}, nil
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
	p.logger.Info("database connection closed")
}

func (p *Postgres) CreateAnalysis(ctx context.Context, url string, userID *int64, r *model.AnalysisResult) (*model.StoredAnalysis, error) {
	details, err := json.Marshal(r.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode details: %w", err)
	}

	row := p.pool.QueryRow(ctx, `INSERT INTO analyses (
		user_id, url, score,
		has_json_api, has_text_api, has_markdown_api,
		has_rss_feed, has_atom_feed, has_json_feed,
		has_llms_txt, has_json_ld, has_semantic_html,
		has_server_side_rendering, has_meta_tags, has_sitemap, has_mcp_server,
		details
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	RETURNING `+analysisColumns,
		userID, url, r.Score,
		r.HasJSONAPI, r.HasTextAPI, r.HasMarkdownAPI,
		r.HasRSSFeed, r.HasAtomFeed, r.HasJSONFeed,
		r.HasLlmsTxt, r.HasJSONLD, r.HasSemanticHTML,
		r.HasServerSideRendering, r.HasMetaTags, r.HasSitemap, r.HasMCPServer,
		details,
	)

	a, err := scanAnalysis(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert analysis: %w", err)
	}
	return &a, nil
}

func (p *Postgres) GetAnalysis(ctx context.Context, id int64) (*model.StoredAnalysis, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = $1`, id)

	a, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %d: %w", id, err)
	}
	return &a, nil
}

func (p *Postgres) ListUserAnalyses(ctx context.Context, userID int64) ([]model.StoredAnalysis, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	analyses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StoredAnalysis, error) {
		return scanAnalysis(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan analyses: %w", err)
	}
	return analyses, nil
}

// LinkAnalysisToUser assigns an unowned analysis to userID. Linking an
// analysis the user already owns is a no-op.
func (p *Postgres) LinkAnalysisToUser(ctx context.Context, id, userID int64) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE analyses SET user_id = $2 WHERE id = $1 AND (user_id IS NULL OR user_id = $2)`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to link analysis %d: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM analyses WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check analysis %d: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyClaimed
}

func (p *Postgres) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO leads (email, analysis_id, url, score) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		lead.Email, lead.AnalysisID, lead.URL, lead.Score,
	).Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert lead: %w", err)
	}
	return &lead, nil
}

func scanAnalysis(row pgx.Row) (model.StoredAnalysis, error) {
	var (
		a       model.StoredAnalysis
		details []byte
	)
	err := row.Scan(
		&a.ID, &a.UserID, &a.URL, &a.CreatedAt, &a.Score,
		&a.HasJSONAPI, &a.HasTextAPI, &a.HasMarkdownAPI,
		&a.HasRSSFeed, &a.HasAtomFeed, &a.HasJSONFeed,
		&a.HasLlmsTxt, &a.HasJSONLD, &a.HasSemanticHTML,
		&a.HasServerSideRendering, &a.HasMetaTags, &a.HasSitemap, &a.HasMCPServer,
		&details,
	)
	if err != nil {
		return a, err
	}

	a.Details = model.NewAnalysisResult().Details
	if err := json.Unmarshal(details, &a.Details); err != nil {
		return a, fmt.Errorf("failed to decode details: %w", err)
	}
	return a, nil
}
