// Package mysql persists the contract transaction journal in MySQL. It owns the
// connection pool settings, the embedded schema migrations and the queries
// used by the journal and the operations API.
package mysql
