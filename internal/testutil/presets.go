package testutil

// Well-known fixture IDs.
const (
	FooID  = "11111111-1111-1111-1111-111111111111"
	BarID  = "22222222-2222-2222-2222-222222222222"
	DupAID = "aaaaaaaa-0000-0000-0000-000000000001"
	DupBID = "bbbbbbbb-0000-0000-0000-000000000002"
)

// WithStandardElements adds the standard fixture: a unique "Foo" service, a
// unique "Bar" in JSON, and two elements sharing the name "Dup" in different
// files.
func (b *Builder) WithStandardElements() *Builder {
	return b.
		WithFileType("services.yaml", "Service").
		WithElement("services.yaml", FooID, "Foo").
		WithElement("services.yaml", DupAID, "Dup", Type("Document")).
		WithElement("nested/more.json", BarID, "Bar", Type("Service")).
		WithElement("nested/more.json", DupBID, "Dup", Type("Document"))
}
