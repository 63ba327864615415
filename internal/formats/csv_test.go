package formats

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duanxinyuan/json-utils/internal/jsonutil"
)

type member struct {
	Name string `csv:"name"`
	Age  int    `csv:"age"`
}

func TestFromCSV(t *testing.T) {
	t.Parallel()

	c := New()
	got, err := FromCSV[member](c, []byte("name, age\nada, 36\n\nbob, 7\n"))
	require.NoError(t, err)
	assert.Equal(t, []member{{Name: "ada", Age: 36}, {Name: "bob", Age: 7}}, got)

	empty, err := FromCSV[member](c, nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = FromCSV[member](c, []byte("name,age\nada,old\n"))
	require.ErrorIs(t, err, jsonutil.ErrInvalidFormat)

	_, err = FromCSV[member](c, []byte("name,age\n\"ada,1\n"))
	require.ErrorIs(t, err, jsonutil.ErrInvalidFormat)
}

func TestToCSVWithSeparator(t *testing.T) {
	t.Parallel()

	c := New(WithCSVSeparator(';'))
	out, err := c.ToCSV([]member{{Name: "ada", Age: 36}, {Name: "bob", Age: 7}})
	require.NoError(t, err)
	assert.Equal(t, "name;age\nada;36\nbob;7\n", string(out))

	single, err := c.ToCSV(member{Name: "solo", Age: 1})
	require.NoError(t, err)
	assert.Equal(t, "name;age\nsolo;1\n", string(single))

	back, err := FromCSV[member](c, out)
	require.NoError(t, err)
	assert.Len(t, back, 2)

	_, err = c.ToCSV(42)
	require.ErrorIs(t, err, jsonutil.ErrUnsupportedValue)
}

func TestReadCSVRows(t *testing.T) {
	t.Parallel()

	rows, err := New().ReadCSVRows([]byte("name,age\nada,36\nbob,7\n"))
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{
		{"name": "ada", "age": "36"},
		{"name": "bob", "age": "7"},
	}, rows)

	_, err = New().ReadCSVRows([]byte("a,b\n1\n"))
	require.ErrorIs(t, err, jsonutil.ErrInvalidFormat)
}

func TestEncodeRows(t *testing.T) {
	t.Parallel()

	c := New()
	tree := map[string]any{
		"10": map[string]any{"name": "j"},
		"2":  map[string]any{"name": "b", "age": 7},
		"0":  map[string]any{"name": "a", "age": 1},
	}
	out, err := c.Encode(tree, CSV)
	require.NoError(t, err)
	assert.Equal(t, "age,name\n1,a\n7,b\n,j\n", string(out))

	_, err = c.Encode(map[string]any{"x": "scalar"}, CSV)
	require.ErrorIs(t, err, jsonutil.ErrUnsupportedValue)
}

func TestCSVFiles(t *testing.T) {
	t.Parallel()

	c := New()
	path := filepath.Join(t.TempDir(), "members.csv")
	require.NoError(t, c.ToCSVFile(path, []member{{Name: "ada", Age: 36}}))

	got, err := FromCSVFile[member](c, path)
	require.NoError(t, err)
	assert.Equal(t, []member{{Name: "ada", Age: 36}}, got)
}
