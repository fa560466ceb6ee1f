package normalize

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct {
	Owner     common.Address `json:"owner"`
	Liquidity *big.Int       `json:"liquidity"`
	Ticks     []*big.Int     `json:"ticks"`
	Active    bool           `json:"active"`
}

func TestFormatBigIntScalar(t *testing.T) {
	v, ok := new(big.Int).SetString("1000000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "1000000000000000000", Format(v))
	assert.Equal(t, "-5", Format(*big.NewInt(-5)))
}

func TestFormatNestedSequences(t *testing.T) {
	in := []any{big.NewInt(1), []any{big.NewInt(2), "x", []*big.Int{big.NewInt(3)}}, true, nil}
	got := Format(in)
	assert.Equal(t, []any{"1", []any{"2", "x", []any{"3"}}, true, nil}, got)
}

func TestFormatStructKeepsFieldOrder(t *testing.T) {
	in := position{
		Owner:     common.HexToAddress("0x0000000000000000000000000000000000000011"),
		Liquidity: big.NewInt(42),
		Ticks:     []*big.Int{big.NewInt(-1), big.NewInt(1)},
		Active:    true,
	}
	got, ok := Format(in).(*Record)
	require.True(t, ok, "structs should normalize to records")

	var keys []string
	for pair := got.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"owner", "liquidity", "ticks", "active"}, keys)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"0x0000000000000000000000000000000000000011","liquidity":"42","ticks":["-1","1"],"active":true}`, string(raw))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0x0102", Format([]byte{1, 2}))
	assert.Equal(t, "0x0a0b", Format([2]byte{10, 11}))
}

func TestFormatScalarsUnchanged(t *testing.T) {
	for _, v := range []any{"hello", true, 3.5, uint8(7), int64(-2), nil} {
		assert.Equal(t, v, Format(v))
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	deep := []any{
		map[string]any{"a": big.NewInt(10), "b": []any{big.NewInt(11)}},
		position{Liquidity: big.NewInt(9)},
		[3]uint16{1, 2, 3},
		[]byte{0xff},
	}
	once := Format(deep)
	twice := Format(once)

	a, err := json.Marshal(once)
	require.NoError(t, err)
	b, err := json.Marshal(twice)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}
