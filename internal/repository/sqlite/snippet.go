package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/model"
	"github.com/sakif/devhelper/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// This line verifies AT COMPILE TIME that *DB implements repository.SnippetRepository.
//
// How it works:
//   - `var _ X = (*Y)(nil)` creates a nil pointer of type *Y
//   - It assigns it to a variable of type X (the interface)
//   - If *Y doesn't implement X, the compiler errors immediately
var _ repository.SnippetRepository = (*DB)(nil)

// snippetColumns is shared by every SELECT so Scan order never drifts.
//
// TAGS AS ONE COLUMN:
// The correlated subquery folds a snippet's tags into a single
// comma-joined string, ordered by position. Tags never contain commas
// (model.ParseTags splits on them), so splitting it back is lossless.
// Reading everything in one query matters because the pool has a single
// connection: a second query while rows are still open would block.
const snippetColumns = `
	s.id, s.user_id, s.title, s.language, s.content, s.created_at,
	COALESCE((SELECT group_concat(t.tag, ',' ORDER BY t.position)
	          FROM snippet_tags t WHERE t.snippet_id = s.id), '')`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row scanner) (model.Snippet, error) {
	var (
		s         model.Snippet
		createdAt int64
		tags      string
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Language, &s.Content, &createdAt, &tags); err != nil {
		return model.Snippet{}, err
	}
	s.CreatedAt = fromUnixNano(createdAt)
	s.Tags = splitTags(tags)
	return s, nil
}

func splitTags(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}

// Create inserts a new snippet and its tags in one transaction.
//
// KEY CONCEPTS:
//
// 1. ID GENERATION WITH xid:
//    xid generates globally unique IDs that are 20 chars, URL-safe, and
//    sortable by creation time. Example: "cv37rs3pp9olc6atsptg".
//
// 2. POINTER RECEIVER (*model.Snippet):
//    After Create(), the caller's snippet has the generated ID and timestamp.
//
// 3. TRANSACTIONS:
//    The snippet row and its tag rows must appear together or not at all.
//    BeginTx → Exec... → Commit. The deferred Rollback is a no-op once
//    Commit has succeeded.
//
// 4. PARAMETERIZED QUERIES (the ? placeholders):
//    NEVER build SQL strings with fmt.Sprintf or string concatenation!
//      BAD:  "WHERE id = '" + userInput + "'"   ← attacker sends: ' OR 1=1 --
//      GOOD: "WHERE id = ?", userInput           ← driver safely escapes the value
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()
	snippet.CreatedAt = db.now().UTC()
	if snippet.Tags == nil {
		snippet.Tags = []string{}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning snippet insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snippets (id, user_id, title, language, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.UserID,
		snippet.Title,
		snippet.Language,
		snippet.Content,
		toUnixNano(snippet.CreatedAt),
	)
	if err != nil {
		// ERROR WRAPPING:
		// %w (not %v!) preserves the error chain so callers can use errors.Is().
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	if err := insertTags(ctx, tx, snippet.ID, snippet.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snippet %s: %w", snippet.ID, err)
	}
	return nil
}

func insertTags(ctx context.Context, tx *sql.Tx, snippetID string, tags []string) error {
	for i, tag := range tags {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snippet_tags (snippet_id, position, tag) VALUES (?, ?, ?)`,
			snippetID, i, tag,
		)
		if err != nil {
			return fmt.Errorf("sqlite: tagging snippet %s: %w", snippetID, err)
		}
	}
	return nil
}

// GetByID retrieves a single snippet by its ID.
//
// sql.ErrNoRows is NOT really an error — it just means "no matching row
// exists." We translate it to our app's NotFound error so the handler
// knows to return 404. Ownership is the service's concern: this returns
// the snippet whoever owns it.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets s
		 WHERE s.id = ?`,
		id,
	)

	snippet, err := scanSnippet(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return &snippet, nil
}

// List returns the owner's snippets, newest first.
//
// KEY CONCEPTS:
//
// 1. defer rows.Close() — ABSOLUTELY CRITICAL:
//    sql.Rows holds a database connection from the pool. Forget to Close()
//    and that connection never comes back. With a pool of one, the very
//    next query would hang.
//
// 2. TAG FILTER WITH EXISTS:
//    "tagged X" is a semi-join: EXISTS stops at the first matching tag row
//    and never duplicates a snippet that happens to carry the tag twice.
//
// 3. DETERMINISTIC ORDER:
//    created_at DESC, then id DESC. xids sort by creation time, so two
//    snippets created in the same nanosecond still come back newest first.
func (db *DB) List(ctx context.Context, filter repository.SnippetFilter) ([]model.Snippet, error) {
	query := `SELECT ` + snippetColumns + `
		 FROM snippets s
		 WHERE s.user_id = ?`
	args := []any{filter.UserID}

	if filter.Tag != "" {
		query += ` AND EXISTS (SELECT 1 FROM snippet_tags t WHERE t.snippet_id = s.id AND t.tag = ?)`
		args = append(args, filter.Tag)
	}
	query += ` ORDER BY s.created_at DESC, s.id DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}

	// rows.Err() returns any error that occurred during Next() calls.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update rewrites title, language, content and the full tag list.
//
// The WHERE clause matches on both id and user_id, so a snippet can only
// be changed by its owner even if a caller skipped the service check.
// 0 rows affected → NotFound. id, user_id and created_at are immutable.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	if snippet.Tags == nil {
		snippet.Tags = []string{}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning snippet update: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, language = ?, content = ?
		 WHERE id = ? AND user_id = ?`,
		snippet.Title,
		snippet.Language,
		snippet.Content,
		snippet.ID,
		snippet.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	// Replace, don't diff: the tag list is small and order matters.
	if _, err := tx.ExecContext(ctx, `DELETE FROM snippet_tags WHERE snippet_id = ?`, snippet.ID); err != nil {
		return fmt.Errorf("sqlite: clearing tags of snippet %s: %w", snippet.ID, err)
	}
	if err := insertTags(ctx, tx, snippet.ID, snippet.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snippet %s: %w", snippet.ID, err)
	}
	return nil
}

// DeleteOwned removes a snippet only when it belongs to userID.
//
// A missing or foreign snippet is not an error here; the boolean tells the
// caller whether anything was actually removed. Tag rows go with it via
// ON DELETE CASCADE.
func (db *DB) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
