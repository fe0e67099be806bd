package sqlite

import "database/sql"

// DB exposes the underlying database for tests only.
func (s *Store) DB() *sql.DB { return s.db }
