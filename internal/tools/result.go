package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ActionQuery   = "query"
	ActionExecute = "execute"
)

// Result is the outcome of one tool invocation.
type Result struct {
	Tool     string `json:"tool"`
	Function string `json:"function"`
	Action   string `json:"action"`
	Success  bool   `json:"success"`
	CallID   string `json:"call_id,omitempty"`

	// Value is the normalized return value of a query.
	Value any `json:"value,omitempty"`

	TxHash      string `json:"tx_hash,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	GasUsed     uint64 `json:"gas_used,omitempty"`
	Status      string `json:"status,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`

	Error string `json:"error,omitempty"`
}

// Text renders the result for the calling agent.
func (r Result) Text() string {
	var b strings.Builder
	if !r.Success {
		fmt.Fprintf(&b, "Failed to %s %s\n\n", r.Action, r.Function)
		fmt.Fprintf(&b, "Error: %s\n\n", r.Error)
		b.WriteString("Please check your arguments and try again.")
		return b.String()
	}

	if r.Action == ActionQuery {
		fmt.Fprintf(&b, "Successfully queried %s\n\n", r.Function)
		b.WriteString("Result:\n```json\n")
		encoded, err := json.MarshalIndent(r.Value, "", "  ")
		if err != nil {
			encoded = []byte(fmt.Sprintf("%q", fmt.Sprint(r.Value)))
		}
		b.Write(encoded)
		b.WriteString("\n```")
		return b.String()
	}

	fmt.Fprintf(&b, "Successfully executed %s\n\n", r.Function)
	fmt.Fprintf(&b, "Transaction Hash: `%s`\n", r.TxHash)
	fmt.Fprintf(&b, "Block Number: %d\n", r.BlockNumber)
	fmt.Fprintf(&b, "Gas Used: %d\n", r.GasUsed)
	status := "Failed"
	if r.Status == StatusSuccess {
		status = "Success"
	}
	fmt.Fprintf(&b, "Status: %s", status)
	if r.ExplorerURL != "" {
		fmt.Fprintf(&b, "\n\nExplorer: %s", r.ExplorerURL)
	}
	return b.String()
}
