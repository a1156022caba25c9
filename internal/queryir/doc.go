// Package queryir describes queries over the roll log.
//
// Callers build a Select with predicates instead of writing SQL. The
// querysql package turns a validated query into parameterized SQLite, so
// filters coming from the command line never reach the database as text.
//
// Query and Predicate are sealed: only types in this package implement
// them, which lets backends switch over them exhaustively.
//
//	switch p := pred.(type) {
//	case Compare:
//	case And:
//	case Exists:
//	}
//
// Tables lists the tables and columns a query may name. Validate checks a
// query against it before compilation.
package queryir
