package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NickPittas/littlellm-go/internal/db"
)

// SQLBackend is the SQLite implementation of Store, for installs whose
// memory set has outgrown the eager file backend.
type SQLBackend struct {
	db *db.DB
}

// NewSQLBackend creates a Store backed by the given DB.
func NewSQLBackend(database *db.DB) *SQLBackend {
	return &SQLBackend{db: database}
}

func (s *SQLBackend) Save(e Entry) (Entry, error) {
	now := time.Now()
	if e.ID == "" {
		e.ID = uuid.NewString()
		e.CreatedAt = now
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if e.Type == "" {
		e.Type = TypeGeneral
	}

	tagsJSON := "[]"
	if len(e.Tags) > 0 {
		b, _ := json.Marshal(e.Tags)
		tagsJSON = string(b)
	}

	_, err := s.db.Conn().Exec(`
		INSERT INTO entries (id, entry_type, title, content, tags, conversation_id, project_id, access_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    entry_type      = excluded.entry_type,
		    title           = excluded.title,
		    content         = excluded.content,
		    tags            = excluded.tags,
		    conversation_id = excluded.conversation_id,
		    project_id      = excluded.project_id,
		    updated_at      = excluded.updated_at`,
		e.ID, string(e.Type), e.Title, e.Content, tagsJSON,
		nullable(e.ConversationID), nullable(e.ProjectID), e.AccessCount,
		e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
	)
	if err != nil {
		return e, fmt.Errorf("sqlstore: save entry: %w", err)
	}
	return e, nil
}

func (s *SQLBackend) Get(id string) (Entry, bool, error) {
	row := s.db.Conn().QueryRow(
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("sqlstore: get entry: %w", err)
	}
	return e, true, nil
}

func (s *SQLBackend) Delete(id string) error {
	if _, err := s.db.Conn().Exec(`DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlstore: delete entry: %w", err)
	}
	return nil
}

func (s *SQLBackend) List() ([]Entry, error) {
	rows, err := s.db.Conn().Query(
		`SELECT ` + entryColumns + ` FROM entries ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *SQLBackend) Search(q Query) ([]Hit, error) {
	var (
		where []string
		args  []any
	)
	if q.Type != "" {
		where = append(where, "entry_type = ?")
		args = append(args, string(q.Type))
	}
	if q.ConversationID != "" {
		where = append(where, "conversation_id = ?")
		args = append(args, q.ConversationID)
	}
	if q.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, q.ProjectID)
	}
	terms := searchTerms(q.Text)
	if len(terms) > 0 {
		var or []string
		for _, term := range terms {
			or = append(or, "(title LIKE ? OR content LIKE ? OR tags LIKE ?)")
			like := "%" + term + "%"
			args = append(args, like, like, like)
		}
		where = append(where, "("+strings.Join(or, " OR ")+")")
	}

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: search entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(entries))
	for _, e := range entries {
		// The SQL filter only proves containment; the shared scoring
		// function assigns the same base estimate as the file backend.
		hits = append(hits, Hit{Entry: e, BaseScore: baseScore(e, q.Text)})
	}
	return hits, nil
}

func (s *SQLBackend) IncrementAccess(id string) error {
	if _, err := s.db.Conn().Exec(
		`UPDATE entries SET access_count = access_count + 1 WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("sqlstore: increment access: %w", err)
	}
	return nil
}

const entryColumns = `id, entry_type, title, content, tags, COALESCE(conversation_id,''), COALESCE(project_id,''), access_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var et, tags, createdAt, updatedAt string
	if err := row.Scan(&e.ID, &et, &e.Title, &e.Content, &tags,
		&e.ConversationID, &e.ProjectID, &e.AccessCount, &createdAt, &updatedAt); err != nil {
		return e, err
	}
	e.Type = EntryType(et)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	if tags != "" && tags != "[]" {
		_ = json.Unmarshal([]byte(tags), &e.Tags)
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseTime tries multiple SQLite timestamp layouts. go-sqlite3 may return
// RFC3339 or the plain "2006-01-02 15:04:05" format depending on the
// connection string and platform.
func parseTime(s string) time.Time {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
