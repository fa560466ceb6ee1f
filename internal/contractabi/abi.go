// Package contractabi loads contract interface descriptors, extracts their
// callable functions and converts loosely typed call arguments into values
// the go-ethereum ABI encoder accepts.
package contractabi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Entry kinds as they appear in the "type" field of an ABI.
const (
	KindFunction    = "function"
	KindEvent       = "event"
	KindError       = "error"
	KindConstructor = "constructor"
	KindFallback    = "fallback"
	KindReceive     = "receive"
)

// State mutability values.
const (
	MutabilityPure       = "pure"
	MutabilityView       = "view"
	MutabilityNonPayable = "nonpayable"
	MutabilityPayable    = "payable"
)

// Parameter describes one input or output slot of an ABI entry.
type Parameter struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	InternalType string      `json:"internalType,omitempty"`
	Components   []Parameter `json:"components,omitempty"`
	Indexed      bool        `json:"indexed,omitempty"`
}

// Entry is a single item of an ABI document.
type Entry struct {
	Type            string      `json:"type"`
	Name            string      `json:"name"`
	StateMutability string      `json:"stateMutability"`
	Inputs          []Parameter `json:"inputs"`
	Outputs         []Parameter `json:"outputs"`
	Constant        bool        `json:"constant,omitempty"`
	Payable         bool        `json:"payable,omitempty"`
	Anonymous       bool        `json:"anonymous,omitempty"`
}

// Interface is a parsed ABI. Entries keep document order; Contract is the
// go-ethereum view used for encoding and decoding calls.
type Interface struct {
	Entries  []Entry
	Contract abi.ABI
}

// Parse decodes an ABI JSON document. Both a bare entry array and an artifact
// object carrying an "abi" field (Hardhat/Foundry output) are accepted.
func Parse(data []byte) (*Interface, error) {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 {
		return nil, fmt.Errorf("ABI document is empty")
	}
	if raw[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(raw, &artifact); err != nil {
			return nil, fmt.Errorf("decode ABI artifact: %w", err)
		}
		if len(artifact.ABI) == 0 {
			return nil, fmt.Errorf("ABI artifact has no \"abi\" field")
		}
		raw = artifact.ABI
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode ABI entries: %w", err)
	}
	for i := range entries {
		entries[i].normalize()
	}

	raw, err := withEntryTypes(raw)
	if err != nil {
		return nil, err
	}
	contract, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}
	return &Interface{Entries: entries, Contract: contract}, nil
}

// withEntryTypes rewrites the document so every entry carries a type.
// go-ethereum rejects typeless entries, which legacy compilers emit for
// functions. Other fields pass through untouched.
func withEntryTypes(raw []byte) ([]byte, error) {
	var docs []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode ABI entries: %w", err)
	}
	patched := false
	for _, doc := range docs {
		var typ string
		if t, ok := doc["type"]; ok {
			_ = json.Unmarshal(t, &typ)
		}
		if typ == "" {
			doc["type"] = json.RawMessage(`"` + KindFunction + `"`)
			patched = true
		}
	}
	if !patched {
		return raw, nil
	}
	out, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encode ABI entries: %w", err)
	}
	return out, nil
}

// LoadFile reads and parses an ABI document from disk.
func LoadFile(path string) (*Interface, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ABI path is empty")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ABI file: %w", err)
	}
	return Parse(content)
}

// normalize fills the fields older compilers leave out: an entry without a
// type is a function, and legacy constant/payable flags map onto
// stateMutability.
func (e *Entry) normalize() {
	if e.Type == "" {
		e.Type = KindFunction
	}
	if e.StateMutability != "" {
		return
	}
	switch {
	case e.Constant:
		e.StateMutability = MutabilityView
	case e.Payable:
		e.StateMutability = MutabilityPayable
	default:
		e.StateMutability = MutabilityNonPayable
	}
}
