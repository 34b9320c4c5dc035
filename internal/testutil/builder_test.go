package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_WritesFilesInLexicalOrder(t *testing.T) {
	paths := NewBuilder(t).
		WithElement("b.yaml", FooID, "Foo").
		WithElement("a.json", BarID, "Bar").
		Build()

	require.Len(t, paths, 2)
	require.Less(t, paths[0], paths[1])
	for _, p := range paths {
		_, err := os.Stat(p)
		require.NoError(t, err)
	}
}

func TestBuilder_Formats(t *testing.T) {
	b := NewBuilder(t).
		WithFileType("x.yaml", "Service").
		WithElement("x.yaml", FooID, "Foo").
		WithElement("x.json", FooID, "Foo", Type("Doc")).
		WithElement("x.xml", FooID, "A & B")
	b.Build()

	yamlData, err := os.ReadFile(b.Path("x.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(yamlData), "type: Service")
	require.Contains(t, string(yamlData), "name: Foo")

	jsonData, err := os.ReadFile(b.Path("x.json"))
	require.NoError(t, err)
	require.Contains(t, string(jsonData), `"type": "Doc"`)

	xmlData, err := os.ReadFile(b.Path("x.xml"))
	require.NoError(t, err)
	require.Contains(t, string(xmlData), `name="A &amp; B"`)
}

func TestBuilder_RawFile(t *testing.T) {
	b := NewBuilder(t).WithRawFile("bad.yaml", "elements: [")
	b.Build()

	data, err := os.ReadFile(b.Path("bad.yaml"))
	require.NoError(t, err)
	require.Equal(t, "elements: [", string(data))
}
