package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datascrub-cli/internal/profile"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadCSVQuotedFields(t *testing.T) {
	p := writeTemp(t, "people.csv", "name,city\n\"Smith, J\",Paris\nLee,\n")
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "people.csv", tbl.Name)
	assert.Equal(t, []string{"name", "city"}, tbl.Data.Schema.Columns())
	assert.Equal(t, []profile.Row{
		{"name": "Smith, J", "city": "Paris"},
		{"name": "Lee", "city": ""},
	}, tbl.Data.Rows)
	assert.Empty(t, tbl.Data.Mismatched)
	assert.False(t, tbl.Truncated())
}

func TestReadCSVSniffsDelimiter(t *testing.T) {
	cases := []struct {
		name string
		in   string
		cols []string
	}{
		{"semicolon", "a;b;c\n1;2;3\n", []string{"a", "b", "c"}},
		{"tab", "a\tb\n1\t2\n", []string{"a", "b"}},
		{"quoted comma ignored", "\"x,y\";z\n1;2\n", []string{"x,y", "z"}},
		{"comma wins ties", "a\n1\n", []string{"a"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tbl, err := ReadCSV(strings.NewReader(c.in), c.name, Options{})
			require.NoError(t, err)
			assert.Equal(t, c.cols, tbl.Data.Schema.Columns())
		})
	}
}

func TestLoadTSVByExtension(t *testing.T) {
	p := writeTemp(t, "data.tsv", "a,b\tc\n1,5\t2\n")
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"a,b", "c"}, tbl.Data.Schema.Columns())
	assert.Equal(t, "1,5", tbl.Data.Rows[0]["a,b"])
}

func TestReadCSVHeaderCleanup(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("\ufeffid,,name,name,Name\n1,2,3,4,5\n"), "h", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "column_2", "name", "name_2", "Name"}, tbl.Data.Schema.Columns())
}

func TestReadCSVPadsSkipsAndWarns(t *testing.T) {
	in := "a,b,c\n\n1\n , \n4,5,6,7\n"
	tbl, err := ReadCSV(strings.NewReader(in), "pad", Options{})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Data.Len())
	assert.Equal(t, profile.Row{"a": "1", "b": nil, "c": nil}, tbl.Data.Rows[0])
	assert.Equal(t, profile.Row{"a": "4", "b": "5", "c": "6"}, tbl.Data.Rows[1])
	require.Len(t, tbl.Warnings, 1)
	assert.Contains(t, tbl.Warnings[0], "more fields than the header")
}

func TestReadCSVMaxRows(t *testing.T) {
	in := "n\n1\n2\n3\n4\n5\n"
	tbl, err := ReadCSV(strings.NewReader(in), "cap", Options{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Data.Len())
	assert.Equal(t, 5, tbl.TotalRows)
	assert.True(t, tbl.Truncated())
	require.NotEmpty(t, tbl.Warnings)
	assert.Contains(t, tbl.Warnings[0], "2/5")
}

func TestReadCSVEmptyInput(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(""), "empty", Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Data.Len())

	tbl, err = ReadCSV(strings.NewReader("a,b\n"), "header-only", Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Data.Len())
	assert.Equal(t, []string{"a", "b"}, tbl.Data.Schema.Columns())
}

func TestLoadUnsupported(t *testing.T) {
	_, err := Load("notes.json", DefaultOptions())
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), ".json")
}

func TestLoadedCSVProfiles(t *testing.T) {
	p := writeTemp(t, "ages.csv", "age\n30\n31\n32\n33\n34\nthirty\nN/A\n")
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	prof := profile.Analyze(tbl.Data, profile.DefaultSettings())
	c, ok := prof.Column("age")
	require.True(t, ok)
	assert.Equal(t, profile.TypeNumber, c.InferredType)
	assert.Equal(t, 1, c.MissingCount)
}
