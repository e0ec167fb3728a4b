// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The default data source is ":memory:", so the database lives and dies
// with the process exactly like the memory store. Pointing storage_path
// at a file is possible but nothing in the application relies on it.
//
// Schema:
//
//	activities          id, name, name_key (folded, UNIQUE), description, created_at
//	students            id, name, email (UNIQUE), registered_at
//	student_activities  student_id, activity_id, position
//
// student_activities has no foreign keys: removing an activity from every
// student is done explicitly inside DeleteActivityByID's transaction.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/config"
	"github.com/aanand-mishra/activity-registry/internal/storage"
	"github.com/aanand-mishra/activity-registry/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS activities (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		name_key    TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS students (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		registered_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS student_activities (
		student_id  TEXT    NOT NULL,
		activity_id TEXT    NOT NULL,
		position    INTEGER NOT NULL,
		PRIMARY KEY (student_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_student_activities_activity
		ON student_activities (activity_id);
`

// SQLite is the concrete SQL implementation of storage.Storage.
type SQLite struct {
	Db  *sql.DB
	now func() time.Time
}

// New opens the SQLite database at cfg.StoragePath and creates the tables
// if they do not already exist.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Every connection to ":memory:" is a separate database; one
	// connection keeps all queries on the same one.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *SQLite) inTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.Db.Begin()
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

func exists(q queryer, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRow(query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

// activityLists loads every student's ordered activity ids.
func activityLists(q queryer) (map[string][]string, error) {
	rows, err := q.Query(
		"SELECT student_id, activity_id FROM student_activities ORDER BY student_id, position",
	)
	if err != nil {
		return nil, fmt.Errorf("activityLists: query: %w", err)
	}
	defer rows.Close()

	lists := make(map[string][]string)
	for rows.Next() {
		var studentID, activityID string
		if err := rows.Scan(&studentID, &activityID); err != nil {
			return nil, fmt.Errorf("activityLists: scan row: %w", err)
		}
		lists[studentID] = append(lists[studentID], activityID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activityLists: rows iteration: %w", err)
	}
	return lists, nil
}

// scanStudents reads id, name, email, registered_at rows and attaches
// each student's activities.
func scanStudents(q queryer, query string, args ...any) ([]types.Student, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("scanStudents: query: %w", err)
	}

	students := make([]types.Student, 0)
	for rows.Next() {
		var (
			student      types.Student
			registeredAt string
		)
		if err := rows.Scan(&student.ID, &student.Name, &student.Email, &registeredAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanStudents: scan row: %w", err)
		}
		if student.RegisteredAt, err = parseTime(registeredAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanStudents: registered_at: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("scanStudents: rows iteration: %w", err)
	}
	// The pool has a single connection: release it before the next query.
	rows.Close()

	lists, err := activityLists(q)
	if err != nil {
		return nil, err
	}
	for i := range students {
		students[i].Activities = lists[students[i].ID]
		if students[i].Activities == nil {
			students[i].Activities = []string{}
		}
	}
	return students, nil
}

func (s *SQLite) GetStudents() ([]types.Student, error) {
	return scanStudents(s.Db,
		"SELECT id, name, email, registered_at FROM students ORDER BY rowid")
}

func getStudent(q queryer, id string) (types.Student, error) {
	students, err := scanStudents(q,
		"SELECT id, name, email, registered_at FROM students WHERE id = ?", id)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: %w", err)
	}
	if len(students) == 0 {
		return types.Student{}, fmt.Errorf("%w: %s", storage.ErrStudentNotFound, id)
	}
	return students[0], nil
}

func (s *SQLite) GetStudentByID(id string) (types.Student, error) {
	return getStudent(s.Db, id)
}

func (s *SQLite) GetStudentsByActivity(activityID string) ([]types.Student, error) {
	return scanStudents(s.Db, `
		SELECT id, name, email, registered_at FROM students
		WHERE id IN (SELECT student_id FROM student_activities WHERE activity_id = ?)
		ORDER BY rowid`, activityID)
}

func replaceActivities(tx *sql.Tx, studentID string, activities []string) error {
	if _, err := tx.Exec("DELETE FROM student_activities WHERE student_id = ?", studentID); err != nil {
		return fmt.Errorf("replaceActivities: delete: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO student_activities (student_id, activity_id, position) VALUES (?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("replaceActivities: prepare: %w", err)
	}
	defer stmt.Close()

	for pos, activityID := range activities {
		if _, err := stmt.Exec(studentID, activityID, pos); err != nil {
			return fmt.Errorf("replaceActivities: exec: %w", err)
		}
	}
	return nil
}

func (s *SQLite) CreateStudent(student types.Student) (types.Student, error) {
	if student.RegisteredAt.IsZero() {
		student.RegisteredAt = s.now()
	}

	var created types.Student
	err := s.inTx("CreateStudent", func(tx *sql.Tx) error {
		taken, err := exists(tx, "SELECT 1 FROM students WHERE id = ?", student.ID)
		if err != nil {
			return fmt.Errorf("CreateStudent: check id: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateStudentID, student.ID)
		}

		taken, err = exists(tx, "SELECT 1 FROM students WHERE email = ?", student.Email)
		if err != nil {
			return fmt.Errorf("CreateStudent: check email: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateEmail, student.Email)
		}

		if _, err := tx.Exec(
			"INSERT INTO students (id, name, email, registered_at) VALUES (?, ?, ?, ?)",
			student.ID, student.Name, student.Email, formatTime(student.RegisteredAt),
		); err != nil {
			return fmt.Errorf("CreateStudent: exec: %w", err)
		}

		if err := replaceActivities(tx, student.ID, student.Activities); err != nil {
			return err
		}

		created, err = getStudent(tx, student.ID)
		return err
	})
	if err != nil {
		return types.Student{}, err
	}
	return created, nil
}

func (s *SQLite) UpdateStudentByID(id string, update types.StudentUpdate) (types.Student, error) {
	var updated types.Student
	err := s.inTx("UpdateStudentByID", func(tx *sql.Tx) error {
		current, err := getStudent(tx, id)
		if err != nil {
			return err
		}

		if update.Email != nil {
			taken, err := exists(tx,
				"SELECT 1 FROM students WHERE email = ? AND id <> ?", *update.Email, id)
			if err != nil {
				return fmt.Errorf("UpdateStudentByID: check email: %w", err)
			}
			if taken {
				return fmt.Errorf("%w: %s", storage.ErrDuplicateEmail, *update.Email)
			}
			current.Email = *update.Email
		}
		if update.Name != nil {
			current.Name = *update.Name
		}

		if _, err := tx.Exec(
			"UPDATE students SET name = ?, email = ? WHERE id = ?",
			current.Name, current.Email, id,
		); err != nil {
			return fmt.Errorf("UpdateStudentByID: exec: %w", err)
		}

		if update.SelectedActivities != nil {
			if err := replaceActivities(tx, id, update.SelectedActivities); err != nil {
				return err
			}
		}

		updated, err = getStudent(tx, id)
		return err
	})
	if err != nil {
		return types.Student{}, err
	}
	return updated, nil
}

func (s *SQLite) DeleteStudentByID(id string) error {
	return s.inTx("DeleteStudentByID", func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM students WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("DeleteStudentByID: exec: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", storage.ErrStudentNotFound, id)
		}
		if _, err := tx.Exec("DELETE FROM student_activities WHERE student_id = ?", id); err != nil {
			return fmt.Errorf("DeleteStudentByID: activities: %w", err)
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Activities
// ─────────────────────────────────────────────────────────────────────────────

const selectActivities = `
	SELECT a.id, a.name, a.description, a.created_at,
	       COUNT(DISTINCT sa.student_id)
	FROM activities a
	LEFT JOIN student_activities sa ON sa.activity_id = a.id`

func scanActivities(q queryer, where string, args ...any) ([]types.Activity, error) {
	rows, err := q.Query(selectActivities+" "+where+" GROUP BY a.id ORDER BY a.rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("scanActivities: query: %w", err)
	}
	defer rows.Close()

	activities := make([]types.Activity, 0)
	for rows.Next() {
		var (
			activity  types.Activity
			createdAt string
		)
		if err := rows.Scan(
			&activity.ID,
			&activity.Name,
			&activity.Description,
			&createdAt,
			&activity.StudentCount,
		); err != nil {
			return nil, fmt.Errorf("scanActivities: scan row: %w", err)
		}
		if activity.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("scanActivities: created_at: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanActivities: rows iteration: %w", err)
	}
	return activities, nil
}

func (s *SQLite) GetActivities() ([]types.Activity, error) {
	return scanActivities(s.Db, "")
}

func getActivity(q queryer, id string) (types.Activity, error) {
	activities, err := scanActivities(q, "WHERE a.id = ?", id)
	if err != nil {
		return types.Activity{}, fmt.Errorf("GetActivityByID: %w", err)
	}
	if len(activities) == 0 {
		return types.Activity{}, fmt.Errorf("%w: %s", storage.ErrActivityNotFound, id)
	}
	return activities[0], nil
}

func (s *SQLite) GetActivityByID(id string) (types.Activity, error) {
	return getActivity(s.Db, id)
}

func (s *SQLite) CreateActivity(activity types.Activity) (types.Activity, error) {
	if activity.ID == "" {
		activity.ID = storage.NewActivityID()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = s.now()
	}
	activity.Name = strings.TrimSpace(activity.Name)
	activity.Description = strings.TrimSpace(activity.Description)

	var created types.Activity
	err := s.inTx("CreateActivity", func(tx *sql.Tx) error {
		taken, err := exists(tx,
			"SELECT 1 FROM activities WHERE name_key = ?", storage.NameKey(activity.Name))
		if err != nil {
			return fmt.Errorf("CreateActivity: check name: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateActivityName, activity.Name)
		}

		if _, err := tx.Exec(
			"INSERT INTO activities (id, name, name_key, description, created_at) VALUES (?, ?, ?, ?, ?)",
			activity.ID, activity.Name, storage.NameKey(activity.Name),
			activity.Description, formatTime(activity.CreatedAt),
		); err != nil {
			return fmt.Errorf("CreateActivity: exec: %w", err)
		}

		created, err = getActivity(tx, activity.ID)
		return err
	})
	if err != nil {
		return types.Activity{}, err
	}
	return created, nil
}

func (s *SQLite) UpdateActivityByID(id string, update types.ActivityUpdate) (types.Activity, error) {
	var updated types.Activity
	err := s.inTx("UpdateActivityByID", func(tx *sql.Tx) error {
		current, err := getActivity(tx, id)
		if err != nil {
			return err
		}

		if update.Name != nil {
			name := strings.TrimSpace(*update.Name)
			taken, err := exists(tx,
				"SELECT 1 FROM activities WHERE name_key = ? AND id <> ?", storage.NameKey(name), id)
			if err != nil {
				return fmt.Errorf("UpdateActivityByID: check name: %w", err)
			}
			if taken {
				return fmt.Errorf("%w: %s", storage.ErrDuplicateActivityName, name)
			}
			current.Name = name
		}
		if update.Description != nil {
			current.Description = strings.TrimSpace(*update.Description)
		}

		if _, err := tx.Exec(
			"UPDATE activities SET name = ?, name_key = ?, description = ? WHERE id = ?",
			current.Name, storage.NameKey(current.Name), current.Description, id,
		); err != nil {
			return fmt.Errorf("UpdateActivityByID: exec: %w", err)
		}

		updated, err = getActivity(tx, id)
		return err
	})
	if err != nil {
		return types.Activity{}, err
	}
	return updated, nil
}

func (s *SQLite) DeleteActivityByID(id string) error {
	return s.inTx("DeleteActivityByID", func(tx *sql.Tx) error {
		found, err := exists(tx, "SELECT 1 FROM activities WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("DeleteActivityByID: check: %w", err)
		}
		if !found {
			return fmt.Errorf("%w: %s", storage.ErrActivityNotFound, id)
		}

		if _, err := tx.Exec("DELETE FROM student_activities WHERE activity_id = ?", id); err != nil {
			return fmt.Errorf("DeleteActivityByID: cascade: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM activities WHERE id = ?", id); err != nil {
			return fmt.Errorf("DeleteActivityByID: exec: %w", err)
		}
		return nil
	})
}
