// Package store persists project, task, and user snapshots in SQLite
// and applies computed schedules back. The engine never touches this
// layer; the CLI loads a snapshot, schedules it, and writes the result
// through ApplySchedule.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/calebmorton/planloom/internal/schedule"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Snapshot is everything one scheduling pass consumes: the project,
// its tasks, the full roster, and other projects' tasks for leveling.
type Snapshot struct {
	Project    schedule.Project `json:"project"`
	Tasks      []schedule.Task  `json:"tasks"`
	Users      []schedule.User  `json:"users"`
	OtherTasks []schedule.Task  `json:"otherTasks,omitempty"`
}

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the database at path and runs
// migrations.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	s := &Store{db: db, log: log}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadSnapshot reads the scheduling inputs for one project: the
// project row, its tasks, the full roster, and every other project's
// tasks for availability seeding.
func (s *Store) LoadSnapshot(ctx context.Context, projectID string) (*Snapshot, error) {
	snap := &Snapshot{}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, start_date FROM projects WHERE id = ?`, projectID)
	if err := row.Scan(&snap.Project.ID, &snap.Project.Name, &snap.Project.StartDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %q not found", projectID)
		}
		return nil, fmt.Errorf("load project: %w", err)
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	snap.Users = users

	all, err := s.loadTasks(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.ProjectID == projectID {
			snap.Tasks = append(snap.Tasks, t)
		} else {
			snap.OtherTasks = append(snap.OtherTasks, t)
		}
	}

	s.log.Debug().
		Str("project", projectID).
		Int("tasks", len(snap.Tasks)).
		Int("users", len(snap.Users)).
		Int("other_tasks", len(snap.OtherTasks)).
		Msg("snapshot loaded")

	return snap, nil
}

func (s *Store) loadUsers(ctx context.Context) ([]schedule.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, role, specialties FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	defer rows.Close()

	var users []schedule.User
	for rows.Next() {
		var u schedule.User
		var specialties string
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &specialties); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if err := json.Unmarshal([]byte(specialties), &u.Specialties); err != nil {
			return nil, fmt.Errorf("user %s specialties: %w", u.ID, err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) loadTasks(ctx context.Context) ([]schedule.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, dependencies, start_date, duration,
		       assigned_to, required_specialty, priority
		FROM tasks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	defer rows.Close()

	var tasks []schedule.Task
	for rows.Next() {
		var t schedule.Task
		var deps, priority string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &deps, &t.StartDate,
			&t.Duration, &t.AssignedTo, &t.RequiredSpecialty, &priority); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if err := json.Unmarshal([]byte(deps), &t.Dependencies); err != nil {
			return nil, fmt.Errorf("task %s dependencies: %w", t.ID, err)
		}
		p, err := schedule.ParsePriority(priority)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		t.Priority = p
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ApplySchedule writes computed start dates and assignments back, one
// transaction for the whole pass.
func (s *Store) ApplySchedule(ctx context.Context, tasks []schedule.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE tasks SET start_date = ?, assigned_to = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range tasks {
		res, err := stmt.ExecContext(ctx, t.StartDate, t.AssignedTo, t.ID)
		if err != nil {
			return fmt.Errorf("update task %s: %w", t.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("task %s not found", t.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info().Int("tasks", len(tasks)).Msg("schedule applied")
	return nil
}

// ImportSnapshot upserts a snapshot's project, users, and tasks,
// including the leveling tasks from other projects.
func (s *Store) ImportSnapshot(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, start_date) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, start_date = excluded.start_date`,
		snap.Project.ID, snap.Project.Name, snap.Project.StartDate)
	if err != nil {
		return fmt.Errorf("import project: %w", err)
	}

	for _, u := range snap.Users {
		specialties, err := json.Marshal(orEmpty(u.Specialties))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, name, role, specialties) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, role = excluded.role, specialties = excluded.specialties`,
			u.ID, u.Name, u.Role, string(specialties))
		if err != nil {
			return fmt.Errorf("import user %s: %w", u.ID, err)
		}
	}

	for _, t := range append(append([]schedule.Task(nil), snap.Tasks...), snap.OtherTasks...) {
		deps, err := json.Marshal(orEmpty(t.Dependencies))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tasks (id, project_id, name, dependencies, start_date, duration,
			                   assigned_to, required_specialty, priority)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				project_id = excluded.project_id,
				name = excluded.name,
				dependencies = excluded.dependencies,
				start_date = excluded.start_date,
				duration = excluded.duration,
				assigned_to = excluded.assigned_to,
				required_specialty = excluded.required_specialty,
				priority = excluded.priority`,
			t.ID, t.ProjectID, t.Name, string(deps), t.StartDate, t.Duration,
			t.AssignedTo, t.RequiredSpecialty, t.Priority.String())
		if err != nil {
			return fmt.Errorf("import task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info().
		Str("project", snap.Project.ID).
		Int("tasks", len(snap.Tasks)+len(snap.OtherTasks)).
		Int("users", len(snap.Users)).
		Msg("snapshot imported")
	return nil
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
