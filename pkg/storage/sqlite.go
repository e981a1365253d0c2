package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) SaveProject(ctx context.Context, project *model.Project) error {
	p, err := model.NewProject(*project)
	if err != nil {
		return err
	}

	responsible, err := json.Marshal(p.Responsible)
	if err != nil {
		return fmt.Errorf("encode responsible: %w", err)
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save project: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, unit, responsible, status, risk_level,
		                       start_date, expected_end_date, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   unit = excluded.unit,
		   responsible = excluded.responsible,
		   status = excluded.status,
		   risk_level = excluded.risk_level,
		   start_date = excluded.start_date,
		   expected_end_date = excluded.expected_end_date,
		   tags = excluded.tags,
		   updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Description, p.Unit, string(responsible), p.Status, p.Risk,
		model.FormatDate(p.StartDate), model.FormatDate(p.ExpectedEndDate), string(tags),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM milestones WHERE project_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clear milestones: %w", err)
	}
	for i, m := range p.Milestones {
		var actual sql.NullString
		if m.ActualDate != nil {
			actual = sql.NullString{String: model.FormatDate(*m.ActualDate), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO milestones (project_id, position, id, title, expected_date, actual_date, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, m.ID, m.Title, model.FormatDate(m.ExpectedDate), actual, m.Status,
		)
		if err != nil {
			return fmt.Errorf("insert milestone %q: %w", m.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save project: %w", err)
	}

	*project = p
	return nil
}

func (s *SQLite) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx, selectProjects+` WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %q %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	milestones, err := s.loadMilestones(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Milestones = milestones[id]

	built, err := model.NewProject(p)
	if err != nil {
		return nil, fmt.Errorf("load project %q: %w", id, err)
	}
	return &built, nil
}

func (s *SQLite) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, selectProjects+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var raw []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		raw = append(raw, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	milestones, err := s.loadMilestones(ctx, "")
	if err != nil {
		return nil, err
	}

	projects := make([]model.Project, 0, len(raw))
	for _, p := range raw {
		p.Milestones = milestones[p.ID]
		built, err := model.NewProject(p)
		if err != nil {
			return nil, fmt.Errorf("load project %q: %w", p.ID, err)
		}
		projects = append(projects, built)
	}
	return projects, nil
}

func (s *SQLite) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete project: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_updates WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete updates: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM milestones WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete milestones: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project %q %w", id, ErrNotFound)
	}
	return tx.Commit()
}

func (s *SQLite) AddUpdate(ctx context.Context, update *model.ProjectUpdate) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, update.ProjectID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("project %q %w", update.ProjectID, ErrNotFound)
	}

	if update.ID == "" {
		update.ID = uuid.New().String()
	}
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now().UTC()
	}
	if update.Source == "" {
		update.Source = "manual"
	}
	if update.Category == "" {
		update.Category = "general"
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO project_updates (id, project_id, timestamp, source, title, description, category, url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		update.ID, update.ProjectID, update.Timestamp, update.Source,
		update.Title, update.Description, update.Category, update.URL,
	)
	if err != nil {
		return fmt.Errorf("insert project update: %w", err)
	}
	return nil
}

func (s *SQLite) ListUpdates(ctx context.Context, projectID string) ([]model.ProjectUpdate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, timestamp, source, title, description, category, url
		 FROM project_updates WHERE project_id = ? ORDER BY timestamp DESC, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	defer rows.Close()

	var updates []model.ProjectUpdate
	for rows.Next() {
		var u model.ProjectUpdate
		if err := rows.Scan(&u.ID, &u.ProjectID, &u.Timestamp, &u.Source,
			&u.Title, &u.Description, &u.Category, &u.URL); err != nil {
			return nil, fmt.Errorf("scan update row: %w", err)
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

const selectProjects = `SELECT id, name, description, unit, responsible, status, risk_level,
	start_date, expected_end_date, tags, created_at, updated_at FROM projects`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (model.Project, error) {
	var (
		p                  model.Project
		responsible, tags  string
		startDate, endDate string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Unit, &responsible, &p.Status, &p.Risk,
		&startDate, &endDate, &tags, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Project{}, err
	}

	var err error
	if p.StartDate, err = model.ParseDate(startDate); err != nil {
		return model.Project{}, err
	}
	if p.ExpectedEndDate, err = model.ParseDate(endDate); err != nil {
		return model.Project{}, err
	}
	if err := json.Unmarshal([]byte(responsible), &p.Responsible); err != nil {
		return model.Project{}, fmt.Errorf("decode responsible: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return model.Project{}, fmt.Errorf("decode tags: %w", err)
	}
	return p, nil
}

// loadMilestones returns milestones keyed by project ID, in stored order.
// An empty projectID loads every project's milestones.
func (s *SQLite) loadMilestones(ctx context.Context, projectID string) (map[string][]model.Milestone, error) {
	query := `SELECT project_id, id, title, expected_date, actual_date, status FROM milestones`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY project_id, position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query milestones: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]model.Milestone)
	for rows.Next() {
		var (
			owner, expected string
			actual          sql.NullString
			m               model.Milestone
		)
		if err := rows.Scan(&owner, &m.ID, &m.Title, &expected, &actual, &m.Status); err != nil {
			return nil, fmt.Errorf("scan milestone row: %w", err)
		}
		if m.ExpectedDate, err = model.ParseDate(expected); err != nil {
			return nil, err
		}
		if actual.Valid {
			d, err := model.ParseDate(actual.String)
			if err != nil {
				return nil, err
			}
			m.ActualDate = &d
		}
		result[owner] = append(result[owner], m)
	}
	return result, rows.Err()
}
