package sourcemap

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/autoview/dbopen"
)

// Schema for the project file index. Rebuilt from the filesystem on
// demand; a derived cache, never the source of truth.
const indexSchema = `
CREATE TABLE IF NOT EXISTS project_files (
	path  TEXT PRIMARY KEY,
	base  TEXT NOT NULL,
	ext   TEXT NOT NULL,
	size  INTEGER NOT NULL,
	mtime INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_project_files_base ON project_files(base);
CREATE INDEX IF NOT EXISTS idx_project_files_ext ON project_files(ext);
`

// maxIndexFiles caps a rescan. Projects past this are indexed partially
// rather than stalling the inspector.
const maxIndexFiles = 50_000

// IndexFinder is the file-existence collaborator backed by a SQLite index
// of the project tree. Convention probes issue many exact-path lookups
// per click; hitting the filesystem for each would be slower and noisier
// than one indexed table.
type IndexFinder struct {
	db     *sql.DB
	root   string
	logger *slog.Logger
}

// NewIndexFinder creates a finder over the given project root. The db
// should come from dbopen so the WAL/busy pragmas are in place. Call
// Init, then Rescan at least once.
func NewIndexFinder(db *sql.DB, root string, logger *slog.Logger) *IndexFinder {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexFinder{db: db, root: root, logger: logger}
}

// Init creates the index table.
func (f *IndexFinder) Init() error {
	if _, err := f.db.Exec(indexSchema); err != nil {
		return fmt.Errorf("sourcemap: init index: %w", err)
	}
	return nil
}

// Rescan rebuilds the index from the filesystem inside one transaction,
// retried on SQLITE_BUSY since the watcher and lookups share the db.
func (f *IndexFinder) Rescan(ctx context.Context) error {
	start := time.Now()

	count := 0
	err := dbopen.RunTx(ctx, f.db, func(tx *sql.Tx) error {
		count = 0
		if _, err := tx.Exec(`DELETE FROM project_files`); err != nil {
			return fmt.Errorf("sourcemap: rescan clear: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO project_files (path, base, ext, size, mtime) VALUES (?,?,?,?,?)`)
		if err != nil {
			return fmt.Errorf("sourcemap: rescan prepare: %w", err)
		}
		defer stmt.Close()

		return filepath.WalkDir(f.root, func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if entry.IsDir() {
				if skipDirs[entry.Name()] {
					return fs.SkipDir
				}
				return nil
			}
			if count >= maxIndexFiles {
				return fs.SkipAll
			}
			rel, err := filepath.Rel(f.root, p)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			info, err := entry.Info()
			if err != nil {
				return nil
			}
			if _, err := stmt.Exec(rel, path.Base(rel), path.Ext(rel), info.Size(), info.ModTime().Unix()); err != nil {
				return err
			}
			count++
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("sourcemap: rescan: %w", err)
	}

	f.logger.Info("sourcemap: index rebuilt",
		"root", f.root, "files", count, "took", time.Since(start))
	return nil
}

// FindFiles resolves a glob against the index. Exact paths (no glob
// metacharacters) become a single lookup; "**/" patterns match by base
// name; anything else matches against the full relative path.
func (f *IndexFinder) FindFiles(ctx context.Context, glob string) ([]string, error) {
	if !strings.ContainsAny(glob, "*?[") {
		var p string
		err := f.db.QueryRowContext(ctx,
			`SELECT path FROM project_files WHERE path = ?`, glob).Scan(&p)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("sourcemap: find exact: %w", err)
		}
		return []string{p}, nil
	}

	// Prefilter by extension when the glob pins one down.
	query := `SELECT path FROM project_files`
	var args []any
	if ext := path.Ext(glob); ext != "" && !strings.ContainsAny(ext, "*?[") {
		query += ` WHERE ext = ?`
		args = append(args, ext)
	}
	query += ` ORDER BY path`

	rows, err := f.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sourcemap: find query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		if matchGlob(p, glob) {
			out = append(out, p)
		}
	}
	return out, rows.Err()
}
