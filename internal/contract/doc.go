// Package contract invokes the functions of one deployed contract. Reads are
// eth_call queries and writes are signed transactions that wait for their
// receipt; both run under the retry executor.
package contract
