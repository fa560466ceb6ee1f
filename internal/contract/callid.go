package contract

import "context"

type callIDKey struct{}

// WithCallID tags ctx with the identifier of the tool invocation so logs and
// journal entries can be correlated.
func WithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDKey{}, id)
}

// CallIDFrom returns the call identifier stored in ctx, or "".
func CallIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}
