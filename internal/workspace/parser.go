package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/uuidtrans/internal/cachemanager"
	"github.com/zjrosen/uuidtrans/internal/element"
	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/registry"
)

// DefaultType tags elements when neither the entry nor its file sets a type.
const DefaultType = "element"

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported element file format")

// ElementFile is the shared document shape of YAML and JSON element files:
//
//	type: Service          # optional default for every entry
//	elements:
//	  - id: 11111111-1111-1111-1111-111111111111
//	    name: Foo
//	    type: Service      # optional
type ElementFile struct {
	Type     string       `yaml:"type" json:"type"`
	Elements []ElementDef `yaml:"elements" json:"elements"`
}

// ElementDef is one entry of an element file.
type ElementDef struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// xmlElementFile is the XML form:
//
//	<elements type="Service">
//	  <element id="..." name="Foo" type="Service"/>
//	</elements>
type xmlElementFile struct {
	XMLName  xml.Name        `xml:"elements"`
	Type     string          `xml:"type,attr"`
	Elements []xmlElementDef `xml:"element"`
}

type xmlElementDef struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

// cacheKey identifies one version of one file: path plus content hash.
type cacheKey string

// Parser reads element files. It implements registry.Parser.
type Parser struct {
	cache *cachemanager.ReadThroughCache[cacheKey, registry.ParseResult, parseInput]
	stats func() cachemanager.Stats
	ttl   time.Duration
}

var _ registry.Parser = (*Parser)(nil)

type parseInput struct {
	path string
	data []byte
}

// ParserOption configures a Parser.
type ParserOption func(*parserOptions)

type parserOptions struct {
	cacheEnabled bool
	ttl          time.Duration
}

// WithParseCache toggles reuse of results for files whose content is
// unchanged since they were last parsed.
func WithParseCache(enabled bool) ParserOption {
	return func(o *parserOptions) {
		o.cacheEnabled = enabled
	}
}

// WithCacheTTL sets how long an unused cached result is kept.
func WithCacheTTL(ttl time.Duration) ParserOption {
	return func(o *parserOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// NewParser creates a Parser. The parse cache is on by default.
func NewParser(opts ...ParserOption) *Parser {
	o := parserOptions{cacheEnabled: true, ttl: cachemanager.DefaultExpiration}
	for _, opt := range opts {
		opt(&o)
	}

	store := cachemanager.NewInMemoryCacheManager[cacheKey, registry.ParseResult](
		"parse", o.ttl, cachemanager.DefaultCleanupInterval)
	return &Parser{
		cache: cachemanager.NewReadThroughCache[cacheKey, registry.ParseResult, parseInput](store, func(_ context.Context, in parseInput) (registry.ParseResult, error) {
			return ParseBytes(in.path, in.data)
		}, !o.cacheEnabled),
		stats: store.Stats,
		ttl:   o.ttl,
	}
}

// Parse reads path and extracts its elements.
func (p *Parser) Parse(ctx context.Context, path string) (registry.ParseResult, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from workspace discovery
	if err != nil {
		return registry.ParseResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	key := cacheKey(path + "@" + strconv.FormatUint(xxhash.Sum64(data), 16))
	return p.cache.GetWithRefresh(ctx, key, parseInput{path: path, data: data}, p.ttl)
}

// CacheStats reports parse cache hits and misses.
func (p *Parser) CacheStats() cachemanager.Stats {
	return p.stats()
}

// ParseBytes decodes data according to the extension of path. Malformed
// entries are skipped and reported in ParseResult.Skipped; a document that
// cannot be decoded at all is an error.
func ParseBytes(path string, data []byte) (registry.ParseResult, error) {
	var (
		file ElementFile
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &file)
	case ".json":
		err = json.Unmarshal(data, &file)
	case ".xml":
		err = decodeXML(data, &file)
	default:
		return registry.ParseResult{}, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return registry.ParseResult{}, fmt.Errorf("decode %s: %w", path, err)
	}

	var result registry.ParseResult
	for i, def := range file.Elements {
		e, err := def.toElement(file.Type, path)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Errorf("entry %d: %w", i+1, err))
			continue
		}
		result.Elements = append(result.Elements, e)
	}
	if len(result.Skipped) > 0 {
		log.Warn(log.CatWorkspace, "Skipped malformed entries", "path", path, "count", len(result.Skipped))
	}
	return result, nil
}

func (d ElementDef) toElement(fileType, source string) (element.Element, error) {
	id := strings.TrimSpace(d.ID)
	switch {
	case id == "":
		return element.Element{}, errors.New("missing id")
	case !element.IsID(id):
		return element.Element{}, fmt.Errorf("id %q is not a UUID", id)
	case strings.TrimSpace(d.Name) == "":
		return element.Element{}, fmt.Errorf("element %s has no name", id)
	}

	typ := d.Type
	if typ == "" {
		typ = fileType
	}
	if typ == "" {
		typ = DefaultType
	}
	return element.New(id, d.Name, typ, source), nil
}

// decodeYAML accepts an empty document as a file with no elements.
func decodeYAML(data []byte, file *ElementFile) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return yaml.Unmarshal(data, file)
}

func decodeXML(data []byte, file *ElementFile) error {
	var doc xmlElementFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return err
	}
	file.Type = doc.Type
	for _, e := range doc.Elements {
		file.Elements = append(file.Elements, ElementDef(e))
	}
	return nil
}
