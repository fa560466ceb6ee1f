package contractabi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoFunctions is returned by callers that require at least one callable
// function in an interface.
var ErrNoFunctions = errors.New("no callable functions found in the provided ABI")

// FunctionDescriptor is the callable view of one ABI function entry.
type FunctionDescriptor struct {
	// Name is unique within the contract. It equals RawName unless the
	// function is overloaded, in which case later overloads carry the same
	// numeric suffix go-ethereum uses as the method key.
	Name            string
	RawName         string
	StateMutability string
	IsRead          bool
	Inputs          []Parameter
	Outputs         []Parameter
	Description     string
}

// ExtractFunctions returns a descriptor for every function entry of iface in
// document order. Events, errors, constructors and fallbacks are skipped.
func ExtractFunctions(iface *Interface) []FunctionDescriptor {
	if iface == nil {
		return nil
	}
	taken := make(map[string]struct{})
	functions := make([]FunctionDescriptor, 0, len(iface.Entries))
	for _, entry := range iface.Entries {
		if entry.Type != KindFunction {
			continue
		}
		name := uniqueName(entry.Name, taken)
		taken[name] = struct{}{}
		functions = append(functions, FunctionDescriptor{
			Name:            name,
			RawName:         entry.Name,
			StateMutability: entry.StateMutability,
			IsRead:          IsReadMutability(entry.StateMutability),
			Inputs:          copyParameters(entry.Inputs),
			Outputs:         copyParameters(entry.Outputs),
		})
	}
	return functions
}

// IsReadMutability reports whether a function with the given mutability can
// be served by a plain call.
func IsReadMutability(mutability string) bool {
	return mutability == MutabilityView || mutability == MutabilityPure
}

// Signature renders parameters as "name (type), ...". Unnamed parameters use
// fallback as their name.
func Signature(params []Parameter, fallback string) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		name := p.Name
		if name == "" {
			name = fallback
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", name, p.Type))
	}
	return strings.Join(parts, ", ")
}

// uniqueName mirrors go-ethereum's overload naming so descriptor names are
// the keys of abi.ABI.Methods.
func uniqueName(raw string, taken map[string]struct{}) string {
	name := raw
	_, ok := taken[name]
	for idx := 0; ok; idx++ {
		name = fmt.Sprintf("%s%d", raw, idx)
		_, ok = taken[name]
	}
	return name
}

func copyParameters(in []Parameter) []Parameter {
	if len(in) == 0 {
		return []Parameter{}
	}
	out := make([]Parameter, len(in))
	for i, p := range in {
		out[i] = p
		if len(p.Components) > 0 {
			out[i].Components = copyParameters(p.Components)
		}
	}
	return out
}
