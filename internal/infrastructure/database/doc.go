// Package database provides the SQLite connection that backs the error
// journal.
//
// Open configures WAL journaling, a busy timeout and a single-connection
// pool. Migrate applies forward-only schema migrations from any fs.FS;
// the binary passes the embedded migrations package.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Journal)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
