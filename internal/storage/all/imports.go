// Package all links every built-in storage backend into a binary. Importing
// it for side effects registers the "postgres", "mssql", "sqlite" and "mysql"
// kinds with internal/storage:
//
//	import _ "csvsample/internal/storage/all"
package all

import (
	_ "csvsample/internal/storage/mssql"
	_ "csvsample/internal/storage/mysql"
	_ "csvsample/internal/storage/postgres"
	_ "csvsample/internal/storage/sqlite"
)
