package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/config"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLitePath = "fact_radar.db"
	defaultListLimit  = 20
	maxListLimit      = 200
)

// ErrNotFound 没有对应记录
var ErrNotFound = errors.New("storage: not found")

// Storage 分析历史存储
type Storage struct {
	db     *sql.DB
	driver string
}

// NewStorage 按配置打开数据库并初始化表结构
func NewStorage(cfg config.DBConfig) (*Storage, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	dsn := cfg.DataSource()
	if driver == DriverSQLite && cfg.DSN == "" {
		dsn = defaultSQLitePath
	}
	return Open(driver, dsn)
}

// Open 使用指定驱动打开数据库
func Open(driver, dsn string) (*Storage, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	// 内存库每个连接都是独立的数据库
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db, driver: driver}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	serial := "SERIAL PRIMARY KEY"
	if s.driver == DriverSQLite {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			title TEXT,
			url TEXT,
			content TEXT,
			ml_score INTEGER,
			gemini_score INTEGER,
			final_score INTEGER,
			classification TEXT,
			factuality_level TEXT,
			confidence DOUBLE PRECISION,
			cross_check_status TEXT,
			payload TEXT NOT NULL,
			created_unix BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_url ON analyses (url)`,
		`CREATE TABLE IF NOT EXISTS cross_check_matches (
			id ` + serial + `,
			analysis_id TEXT REFERENCES analyses(id),
			position INTEGER,
			source TEXT,
			title TEXT,
			link TEXT,
			snippet TEXT,
			similarity INTEGER,
			reasoning TEXT
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// rebind 将 ? 占位符转换为 postgres 的 $n
func (s *Storage) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save 写入一次分析结果及其佐证，同 ID 覆盖
func (s *Storage) Save(ctx context.Context, a *model.Analysis) error {
	if a == nil || a.ID == "" {
		return errors.New("storage: analysis without id")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM cross_check_matches WHERE analysis_id = ?`), a.ID); err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM analyses WHERE id = ?`), a.ID); err != nil {
		return fmt.Errorf("failed to clear analysis: %w", err)
	}

	var gemini sql.NullInt64
	if a.Assessment.Score != nil {
		gemini = sql.NullInt64{Int64: int64(*a.Assessment.Score), Valid: true}
	}
	status := ""
	if a.CrossCheck != nil {
		status = string(a.CrossCheck.Status)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO analyses (id, title, url, content, ml_score, gemini_score, final_score,
			classification, factuality_level, confidence, cross_check_status, payload, created_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, clean(a.Title), clean(a.URL), clean(a.Content), a.Classifier.MLScore, gemini, a.Fusion.FinalScore,
		string(a.Fusion.Classification), string(a.Fusion.FactualityLevel), a.Confidence, status,
		clean(string(payload)), a.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	if a.CrossCheck != nil {
		for i, m := range a.CrossCheck.Matches {
			_, err = tx.ExecContext(ctx, s.rebind(`
				INSERT INTO cross_check_matches (analysis_id, position, source, title, link, snippet, similarity, reasoning)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
				a.ID, i, m.SourceDomain, clean(m.Title), clean(m.Link), clean(m.Snippet), m.Similarity, clean(m.Reasoning))
			if err != nil {
				return fmt.Errorf("failed to insert match: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Get 按 ID 读取
func (s *Storage) Get(ctx context.Context, id string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT payload, content FROM analyses WHERE id = ?`), id)
	a, err := scanAnalysis(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadMatches(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// FindByURL 返回该 URL 最近一次分析
func (s *Storage) FindByURL(ctx context.Context, url string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT payload, content FROM analyses WHERE url = ?
		ORDER BY created_unix DESC LIMIT 1`), url)
	a, err := scanAnalysis(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadMatches(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List 按时间倒序列出最近的分析，不含正文
func (s *Storage) List(ctx context.Context, limit int) ([]*model.Analysis, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT payload FROM analyses ORDER BY created_unix DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Analysis
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var a model.Analysis
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *Storage) loadMatches(ctx context.Context, a *model.Analysis) error {
	if a.CrossCheck == nil {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT source, title, link, snippet, similarity, reasoning
		FROM cross_check_matches WHERE analysis_id = ? ORDER BY position`), a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	matches := []model.SearchMatch{}
	for rows.Next() {
		var m model.SearchMatch
		if err := rows.Scan(&m.SourceDomain, &m.Title, &m.Link, &m.Snippet, &m.Similarity, &m.Reasoning); err != nil {
			return err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	a.CrossCheck.Matches = matches
	return nil
}

func scanAnalysis(row *sql.Row) (*model.Analysis, error) {
	var payload string
	var content sql.NullString
	if err := row.Scan(&payload, &content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var a model.Analysis
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	a.Content = content.String
	return &a, nil
}

// clean 移除无效的 UTF-8 字符和 NULL 字节，PostgreSQL 文本字段不支持 NULL 字节
func clean(s string) string {
	return removeNullBytes(strings.ToValidUTF8(s, ""))
}

func removeNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
