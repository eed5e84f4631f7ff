package inspect

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/store"
	"github.com/roach88/recstore/internal/testutil"
	"github.com/roach88/recstore/internal/value"
)

func sensorStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(schema.StoreDef{
		Name: "Sensors",
		Fields: []schema.FieldDef{
			{Name: "Id", Type: "string"},
			{Name: "Reading", Type: "float", Null: true},
			{Name: "Where", Type: "float_pair", Null: true},
			{Name: "Ok", Type: "bool"},
		},
	})
	require.NoError(t, err)
	return s
}

func TestPrintStreamAggr(t *testing.T) {
	s := sensorStore(t)
	require.NoError(t, s.AttachAggregate("count", testutil.NewCountAggregate()))
	require.NoError(t, s.AttachAggregate("ema", testutil.StaticAggregate{
		"value": 1.5,
		"label": "temp",
		"ready": true,
		"last":  nil,
	}))
	_, err := s.Add(map[string]any{"Id": "a"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrintStreamAggr(&buf, s))

	want := AggrHeader + "\n" +
		"Sensors : count : count : number : 1\n" +
		"Sensors : count : last_id : number : 0\n" +
		"Sensors : ema : label : string : temp\n" +
		"Sensors : ema : last : null : null\n" +
		"Sensors : ema : ready : boolean : true\n" +
		"Sensors : ema : value : number : 1.5\n"
	assert.Equal(t, want, buf.String())
}

func TestPrintStreamAggr_NoAggregates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintStreamAggr(&buf, sensorStore(t)))
	assert.Equal(t, AggrHeader+"\n", buf.String())
}

func TestDir_Types(t *testing.T) {
	obj := map[string]any{
		"name":  "x",
		"count": 3,
		"tags":  []any{"a", "b"},
		"ok":    false,
	}

	var buf bytes.Buffer
	require.NoError(t, Dir(&buf, obj, DirOptions{}))
	assert.Equal(t,
		".count - (number)\n"+
			".name - (string)\n"+
			".ok - (boolean)\n"+
			".tags - (object)\n",
		buf.String())
}

func TestDir_ValuesDepthAndPrefix(t *testing.T) {
	obj := map[string]any{
		"name": "x",
		"ok":   false,
		"nested": map[string]any{
			"pi":   3.25,
			"list": []any{1, "two"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Dir(&buf, obj, DirOptions{PrintValues: true, Depth: 3, Prefix: "obj"}))
	assert.Equal(t,
		"obj.name - \"x\"\n"+
			"obj.nested - {\"list\":[1,\"two\"],\"pi\":3.25}\n"+
			"obj.nested.list - [1,\"two\"]\n"+
			"obj.nested.list.0 - 1\n"+
			"obj.nested.list.1 - \"two\"\n"+
			"obj.nested.pi - 3.25\n"+
			"obj.ok - false\n",
		buf.String())
}

func TestDir_Width(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dir(&buf, []int{10, 20, 30}, DirOptions{Width: 2}))
	assert.Equal(t, ".0 - (number)\n.1 - (number)\n", buf.String())
}

func TestDir_RecordInSchemaOrder(t *testing.T) {
	s := sensorStore(t)
	id, err := s.Add(map[string]any{"Id": "s1", "Where": []any{1, 2}, "Ok": true})
	require.NoError(t, err)
	ref, err := s.Get(id)
	require.NoError(t, err)

	var types bytes.Buffer
	require.NoError(t, Dir(&types, ref, DirOptions{}))
	assert.Equal(t,
		".Id - (string)\n"+
			".Reading - (null)\n"+
			".Where - (float_pair)\n"+
			".Ok - (bool)\n",
		types.String())

	var vals bytes.Buffer
	require.NoError(t, Dir(&vals, ref, DirOptions{PrintValues: true}))
	assert.Equal(t,
		".Id - \"s1\"\n"+
			".Reading - null\n"+
			".Where - [1,2]\n"+
			".Ok - true\n",
		vals.String())
}

func TestDir_StructAndScalars(t *testing.T) {
	type point struct {
		X, Y   float64
		hidden int
	}

	var buf bytes.Buffer
	require.NoError(t, Dir(&buf, &point{X: 1, Y: 2}, DirOptions{PrintValues: true}))
	assert.Equal(t, ".X - 1\n.Y - 2\n", buf.String())

	buf.Reset()
	require.NoError(t, Dir(&buf, 42, DirOptions{}))
	require.NoError(t, Dir(&buf, nil, DirOptions{}))
	require.NoError(t, Dir(&buf, value.IntV{1, 2}, DirOptions{}))
	assert.Empty(t, buf.String())

	require.NoError(t, Dir(&buf, map[string]any{"a": 1}, DirOptions{Depth: -1}))
	assert.Empty(t, buf.String())
}
