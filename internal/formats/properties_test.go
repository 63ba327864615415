package formats

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duanxinyuan/json-utils/internal/jsonutil"
)

type dbSettings struct {
	Host string `properties:"host"`
	Port int    `properties:"port"`
}

type appSettings struct {
	Name string     `properties:"name"`
	DB   dbSettings `properties:"db"`
}

func TestFromPropertiesTargets(t *testing.T) {
	t.Parallel()

	c := New()
	data := []byte("# comment\nname = svc\ndb.host = localhost\ndb.port = 5432\n")

	var nested map[string]any
	require.NoError(t, c.FromProperties(data, &nested))
	assert.Equal(t, map[string]any{
		"name": "svc",
		"db":   map[string]any{"host": "localhost", "port": "5432"},
	}, nested)

	var flat map[string]string
	require.NoError(t, c.FromProperties(data, &flat))
	assert.Equal(t, map[string]string{"name": "svc", "db.host": "localhost", "db.port": "5432"}, flat)

	var settings appSettings
	require.NoError(t, c.FromProperties(data, &settings))
	assert.Equal(t, appSettings{Name: "svc", DB: dbSettings{Host: "localhost", Port: 5432}}, settings)
}

func TestDecodePropertiesLeafSharingPrefix(t *testing.T) {
	t.Parallel()

	c := New()
	for i := 0; i < 50; i++ {
		tree, err := c.Decode([]byte("a=1\na.b=2\nserver=main\nserver.port=80\n"), Properties)
		require.NoError(t, err)

		flat, err := c.Flatten(tree)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"a": "1", "a.b": "2", "server": "main", "server.port": "80"}, flat)
	}
}

func TestFromPropertiesExpandsReferences(t *testing.T) {
	t.Parallel()

	var flat map[string]string
	require.NoError(t, New().FromProperties([]byte("base=/opt\nbin=${base}/bin\n"), &flat))
	assert.Equal(t, "/opt/bin", flat["bin"])
}

func TestFromPropertiesTypeMismatch(t *testing.T) {
	t.Parallel()

	var settings appSettings
	err := New().FromProperties([]byte("db.port=not-a-port\n"), &settings)
	require.ErrorIs(t, err, jsonutil.ErrTypeMismatch)
}

func TestToProperties(t *testing.T) {
	t.Parallel()

	c := New()
	out, err := c.ToProperties(map[string]any{
		"z":    "last",
		"a":    map[string]any{"b": 1, "c": true},
		"list": []any{"x", "y"},
		"nil":  nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "a.b = 1\na.c = true\nlist = x,y\nnil = \nz = last\n", string(out))
}

func TestToPropertiesFromStruct(t *testing.T) {
	t.Parallel()

	type server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	}
	type root struct {
		Server server `json:"server"`
	}

	out, err := New().ToProperties(root{Server: server{Host: "h", Port: 80}})
	require.NoError(t, err)
	assert.Equal(t, "server.host = h\nserver.port = 80\n", string(out))

	_, err = New().ToProperties([]int{1})
	require.ErrorIs(t, err, jsonutil.ErrUnsupportedValue)
}

func TestPropertiesFiles(t *testing.T) {
	t.Parallel()

	c := New()
	path := filepath.Join(t.TempDir(), "app.properties")
	require.NoError(t, c.ToPropertiesFile(path, map[string]any{"db": map[string]any{"host": "h"}}))

	var flat map[string]string
	require.NoError(t, c.FromPropertiesFile(path, &flat))
	assert.Equal(t, map[string]string{"db.host": "h"}, flat)
}
