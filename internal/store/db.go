// Package store persists compilations in sqlite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ml-pipelines/internal/model"
)

// ErrNotFound is returned when no compilation has the requested id.
var ErrNotFound = errors.New("compilation not found")

var db *sql.DB

// InitDB opens the database at dbPath and creates the tables if needed.
func InitDB(dbPath string) error {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	compilationTable := `
	CREATE TABLE IF NOT EXISTS compilations (
		id TEXT PRIMARY KEY,
		pipeline TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		graph_hash TEXT,
		params TEXT,
		workflow TEXT,
		published_uri TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS compile_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		compilation_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`

	if _, err := conn.Exec(compilationTable); err != nil {
		conn.Close()
		return err
	}
	if _, err := conn.Exec(errorTable); err != nil {
		conn.Close()
		return err
	}

	if db != nil {
		db.Close()
	}
	db = conn
	return nil
}

// Close releases the database handle.
func Close() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// SaveCompilation stores a new compilation. Zero timestamps are set to now.
func SaveCompilation(c *model.Compilation) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	_, err := db.Exec(`INSERT INTO compilations
		(id, pipeline, name, status, graph_hash, params, workflow, published_uri, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Pipeline, c.Name, c.Status, c.GraphHash, string(c.Params), c.Workflow, c.PublishedURI,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save compilation %s: %w", c.ID, err)
	}
	return nil
}

// SaveCompileError records an error for a compilation
func SaveCompileError(compilationID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO compile_errors (compilation_id, error_message, created_at) VALUES (?, ?, ?)`,
		compilationID, err.Error(), now)
	return e
}

// GetCompileErrors returns the errors of a compilation, oldest first.
func GetCompileErrors(compilationID string) ([]model.CompileError, error) {
	rows, err := db.Query(`SELECT id, compilation_id, error_message, created_at FROM compile_errors
		WHERE compilation_id = ? ORDER BY id`, compilationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	errs := []model.CompileError{}
	for rows.Next() {
		var e model.CompileError
		if err := rows.Scan(&e.ID, &e.CompilationID, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		errs = append(errs, e)
	}
	return errs, rows.Err()
}

// ListCompilations returns all compilations, newest first. A non-empty
// pipeline filters by pipeline kind.
func ListCompilations(pipeline string) ([]model.CompilationSummary, error) {
	query := `SELECT id, pipeline, name, status, graph_hash, published_uri, created_at, updated_at FROM compilations`
	var args []any
	if pipeline != "" {
		query += ` WHERE pipeline = ?`
		args = append(args, pipeline)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.CompilationSummary{}
	for rows.Next() {
		var s model.CompilationSummary
		var hash, uri sql.NullString
		if err := rows.Scan(&s.ID, &s.Pipeline, &s.Name, &s.Status, &hash, &uri, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.GraphHash, s.PublishedURI = hash.String, uri.String
		list = append(list, s)
	}
	return list, rows.Err()
}

// GetCompilation fetches a compilation with its workflow document.
func GetCompilation(id string) (*model.Compilation, error) {
	var c model.Compilation
	var hash, params, workflow, uri sql.NullString

	err := db.QueryRow(`SELECT id, pipeline, name, status, graph_hash, params, workflow, published_uri, created_at, updated_at
		FROM compilations WHERE id = ?`, id).
		Scan(&c.ID, &c.Pipeline, &c.Name, &c.Status, &hash, &params, &workflow, &uri, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	c.GraphHash, c.Workflow, c.PublishedURI = hash.String, workflow.String, uri.String
	if params.String != "" {
		c.Params = []byte(params.String)
	}
	return &c, nil
}

// SetPublishedURI records where the workflow was uploaded and marks the
// compilation published.
func SetPublishedURI(id, uri string) error {
	return update(id, `UPDATE compilations SET published_uri = ?, status = '`+model.StatusPublished+`', updated_at = ? WHERE id = ?`, uri)
}

func update(id, stmt, value string) error {
	res, err := db.Exec(stmt, value, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
