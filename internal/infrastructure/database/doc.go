// Package database provides the SQLite file behind the authority's
// credential store.
//
// The schema is a single table of byte slots mirroring the EEPROM layout of
// the lock controller, plus schema_migrations. Migrations are embedded by the
// top-level migrations package and applied at startup:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Storage.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql. Each applies in its own transaction.
//
// The file is created with mode 0600. Credential digits are stored in the
// clear; protecting them is outside this package.
package database
