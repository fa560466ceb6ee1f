// Package web3 houses blockchain connectivity utilities: the narrow reader
// and writer contracts the invocation layer depends on, chain definitions
// loaded from YAML, and the snapshot type used for health reporting.
package web3
