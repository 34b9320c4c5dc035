package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/uuidtrans/internal/element"
	"github.com/zjrosen/uuidtrans/internal/registry"
	"github.com/zjrosen/uuidtrans/internal/testutil"
)

func TestNewFilter_RejectsBadPattern(t *testing.T) {
	_, err := NewFilter([]string{"[unclosed"}, nil)
	require.Error(t, err)

	_, err = NewFilter(nil, []string{"{a,b"})
	require.Error(t, err)
}

func TestFilter_Match(t *testing.T) {
	f, err := NewFilter(nil, DefaultExclude)
	require.NoError(t, err)

	tests := map[string]bool{
		"a.yaml":                     true,
		"deep/nested/b.yml":          true,
		"c.json":                     true,
		"d.XML":                      false, // patterns are case-sensitive
		"notes.txt":                  false,
		".git/config.yaml":           false,
		"web/node_modules/pkg.json":  false,
		".uuidtrans/config.yaml":     false,
		"services/.gitkeep":          false,
		"services/payments.xml":      true,
		filepath.Join("x", "y.yaml"): true,
	}
	for path, want := range tests {
		assert.Equal(t, want, f.Match(path), path)
	}
}

func TestDiscover_SortedAndFiltered(t *testing.T) {
	b := testutil.NewBuilder(t).
		WithStandardElements().
		WithRawFile("README.md", "# not an element file").
		WithRawFile(".git/HEAD.yaml", "elements: []")
	b.Build()

	f, err := NewFilter(nil, DefaultExclude)
	require.NoError(t, err)

	files, err := Discover(context.Background(), b.Root(), f)
	require.NoError(t, err)

	require.Equal(t, []string{
		b.Path("nested/more.json"),
		b.Path("services.yaml"),
	}, files)
}

func TestDiscover_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	f, err := NewFilter(nil, nil)
	require.NoError(t, err)

	_, err = Discover(context.Background(), path, f)
	require.ErrorIs(t, err, ErrNotDirectory)
}

func TestDiscover_Cancelled(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardElements()
	b.Build()
	f, err := NewFilter(nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Discover(ctx, b.Root(), f)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseBytes_YAML(t *testing.T) {
	data := []byte(`
type: Service
elements:
  - id: 11111111-1111-1111-1111-111111111111
    name: Foo
  - id: 22222222-2222-2222-2222-222222222222
    name: Bar
    type: Document
`)
	res, err := ParseBytes("ws/a.yaml", data)
	require.NoError(t, err)
	require.Empty(t, res.Skipped)
	require.Equal(t, []element.Element{
		element.New(testutil.FooID, "Foo", "Service", "ws/a.yaml"),
		element.New(testutil.BarID, "Bar", "Document", "ws/a.yaml"),
	}, res.Elements)
}

func TestParseBytes_JSON(t *testing.T) {
	data := []byte(`{"elements":[{"id":"11111111-1111-1111-1111-111111111111","name":"Foo"}]}`)
	res, err := ParseBytes("a.json", data)
	require.NoError(t, err)
	require.Len(t, res.Elements, 1)
	assert.Equal(t, DefaultType, res.Elements[0].Type())
}

func TestParseBytes_XML(t *testing.T) {
	data := []byte(`<elements type="Class">
  <element id="11111111-1111-1111-1111-111111111111" name="Foo"/>
  <element id="22222222-2222-2222-2222-222222222222" name="Bar" type="Enum"/>
</elements>`)
	res, err := ParseBytes("a.xml", data)
	require.NoError(t, err)
	require.Len(t, res.Elements, 2)
	assert.Equal(t, "Class", res.Elements[0].Type())
	assert.Equal(t, "Enum", res.Elements[1].Type())
}

func TestParseBytes_SkipsMalformedEntries(t *testing.T) {
	data := []byte(`
elements:
  - name: NoID
  - id: not-a-uuid
    name: Bad
  - id: 11111111-1111-1111-1111-111111111111
  - id: 22222222-2222-2222-2222-222222222222
    name: Good
`)
	res, err := ParseBytes("a.yaml", data)
	require.NoError(t, err)
	require.Len(t, res.Elements, 1)
	assert.Equal(t, "Good", res.Elements[0].Name())
	require.Len(t, res.Skipped, 3)
	assert.Contains(t, res.Skipped[0].Error(), "entry 1: missing id")
	assert.Contains(t, res.Skipped[1].Error(), "not a UUID")
	assert.Contains(t, res.Skipped[2].Error(), "has no name")
}

func TestParseBytes_Errors(t *testing.T) {
	_, err := ParseBytes("a.txt", []byte("x"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseBytes("a.yaml", []byte("elements: ["))
	require.Error(t, err)

	_, err = ParseBytes("a.json", []byte("{"))
	require.Error(t, err)

	_, err = ParseBytes("a.xml", []byte("<other/>"))
	require.Error(t, err)
}

func TestParseBytes_EmptyYAML(t *testing.T) {
	res, err := ParseBytes("a.yaml", []byte("  \n"))
	require.NoError(t, err)
	require.Empty(t, res.Elements)
}

func TestParser_CacheHitsOnUnchangedContent(t *testing.T) {
	b := testutil.NewBuilder(t).WithElement("a.yaml", testutil.FooID, "Foo")
	paths := b.Build()
	p := NewParser()
	ctx := context.Background()

	first, err := p.Parse(ctx, paths[0])
	require.NoError(t, err)
	second, err := p.Parse(ctx, paths[0])
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, uint64(1), p.CacheStats().Hits)

	// new content, new hash: a miss and a fresh parse
	require.NoError(t, os.WriteFile(paths[0], []byte(
		"elements:\n  - id: "+testutil.FooID+"\n    name: Renamed\n"), 0o600))
	third, err := p.Parse(ctx, paths[0])
	require.NoError(t, err)
	assert.Equal(t, "Renamed", third.Elements[0].Name())
	assert.Equal(t, uint64(1), p.CacheStats().Hits)
}

func TestParser_CacheDisabled(t *testing.T) {
	paths := testutil.NewBuilder(t).WithElement("a.yaml", testutil.FooID, "Foo").Build()
	p := NewParser(WithParseCache(false))

	for i := 0; i < 2; i++ {
		_, err := p.Parse(context.Background(), paths[0])
		require.NoError(t, err)
	}
	assert.Zero(t, p.CacheStats().Hits)
	assert.Zero(t, p.CacheStats().Items)
}

func TestParser_MissingFile(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), filepath.Join(t.TempDir(), "gone.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParser_DrivesRegistryRebuild(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardElements()
	b.Build()
	f, err := NewFilter(nil, DefaultExclude)
	require.NoError(t, err)
	files, err := Discover(context.Background(), b.Root(), f)
	require.NoError(t, err)

	reg := registry.New(NewParser())
	t.Cleanup(reg.Close)
	report, err := reg.Rebuild(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Elements)
	assert.Empty(t, report.Warnings)
	foo, ok := reg.Current().LookupID(testutil.FooID)
	require.True(t, ok)
	assert.Equal(t, "Service", foo.Type())
	assert.Len(t, reg.Current().LookupName("Dup"), 2)
}
