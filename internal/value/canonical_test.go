package value

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"zebra": Int(1),
		"apple": String("a"),
		"Mango": Bool(true),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"Mango":true,"apple":"a","zebra":1}`, string(data))
}

func TestMarshalCanonicalValues(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"int", Int(-3), `-3`},
		{"uint64", UInt64(math.MaxUint64), `18446744073709551615`},
		{"float", Float(1.23), `1.23`},
		{"whole float", Float(124), `124`},
		{"string no html escape", String("<a&b>"), `"<a&b>"`},
		{"string_v", StringV{"test1", "test2"}, `["test1","test2"]`},
		{"float_pair", FloatPair{1.5, -2}, `[1.5,-2]`},
		{"datetime", DateTime(time.Date(2014, 5, 28, 10, 30, 0, 0, time.UTC)), `"2014-05-28T10:30:00.000Z"`},
		{"sparse", SparseV{{Index: 1, Value: 0.5}, {Index: 7, Value: 2}}, `[[1,0.5],[7,2]]`},
		{"null", Null{}, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to the single code point U+00E9.
	data, err := MarshalCanonical(String("cafe\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"caf\u00e9\"", string(data))
}

func TestMarshalExactKeepsCodePoints(t *testing.T) {
	in := map[string]any{"Cafe\u0301": String("e\u0301"), "b": StringV{"a\u0308"}}

	data, err := MarshalExact(in)
	require.NoError(t, err)
	assert.Equal(t, "{\"Cafe\u0301\":\"e\u0301\",\"b\":[\"a\u0308\"]}", string(data))

	canon, err := MarshalCanonical(in)
	require.NoError(t, err)
	assert.Equal(t, "{\"Caf\u00e9\":\"\u00e9\",\"b\":[\"\u00e4\"]}", string(canon))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(Float(math.Inf(1)))
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": struct{}{}})
	assert.Error(t, err)
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 but after it in UTF-16, where the
	// emoji becomes a surrogate pair starting at 0xD83D.
	m := map[string]int{"\U0001F600": 1, "｡": 2, "a": 3}
	assert.Equal(t, []string{"a", "\U0001F600", "｡"}, SortedKeys(m))
}
