// Package metrics exposes Prometheus collectors for tool invocations, contract
// retries, mined transactions and the operations HTTP API.
package metrics
