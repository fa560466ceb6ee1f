// Package redis keeps a capped, newest-first list of JSON documents in Redis.
// The transaction journal uses it when several server instances share a
// journal without a relational database.
package redis
