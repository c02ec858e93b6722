// Package postgres implements the store interfaces against PostgreSQL,
// including schema migrations. It handles query execution and the mapping
// between domain entities and database rows.
package postgres
