// Package codec defines per-type value codecs and the registry that maps
// canonical type identifiers to them. A registry is an explicit dependency
// of stores, encoders and decoders; there is no package-level global.
package codec

import (
	"errors"
	"io"
	"strings"

	"datarec/pkg/record/wire"
)

// ErrUnregistered is returned when a type identifier resolves to no codec,
// either at store write time or while decoding a record.
var ErrUnregistered = errors.New("type not registered")

// Codec encodes and decodes values of one logical type. Write must produce
// self-delimiting output: the record format carries no outer length for
// value bytes, so Read has to consume exactly what Write produced and no
// more. Fixed-width codecs satisfy this trivially; variable-length codecs
// must prefix their own length (see wire.WriteBytes).
type Codec interface {
	// Name returns the canonical type identifier the codec is registered under.
	Name() string
	Write(w io.Writer, v any) error
	Read(r wire.Reader) (any, error)
}

// Registry maps canonical type identifiers to codecs.
type Registry struct{ byName map[string]Codec }

// NewRegistry constructs a registry preloaded with the built-in codecs that
// don't require initialization. CBOR and PbStruct can be added explicitly
// via Register.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Codec)}
	r.Register(Int32())
	r.Register(Int64())
	r.Register(Float64())
	r.Register(Bool())
	r.Register(Utf8String())
	r.Register(Bytes())
	return r
}

// Register adds a codec under its canonical name. Registering a name twice
// silently replaces the earlier codec.
func (r *Registry) Register(c Codec) { r.byName[c.Name()] = c }

// Lookup returns the codec for a canonical identifier, or nil.
func (r *Registry) Lookup(name string) Codec { return r.byName[name] }

// Has reports whether a raw type tag resolves to a registered codec.
func (r *Registry) Has(tag string) bool { return r.Lookup(Normalize(tag)) != nil }

// Canonical identifiers of the built-in catalog.
const (
	TypeInt32      = "Int32"
	TypeInt64      = "Int64"
	TypeFloat64    = "Float64"
	TypeBool       = "Bool"
	TypeUtf8String = "Utf8String"
	TypeBytes      = "Bytes"
	TypeCbor       = "Cbor"
	TypePbStruct   = "PbStruct"
)

var aliases = map[string]string{
	"int32":   TypeInt32,
	"rune":    TypeInt32,
	"int64":   TypeInt64,
	"int":     TypeInt64,
	"float64": TypeFloat64,
	"double":  TypeFloat64,
	"bool":    TypeBool,
	"string":  TypeUtf8String,
	"utf8":    TypeUtf8String,
	"[]byte":  TypeBytes,
	"bytes":   TypeBytes,
}

// Normalize maps a raw type tag to its canonical identifier. Representation
// variants (Go kind names, pointer tags) collapse to one identifier, so
// values of the same logical type always share one registry entry and one
// index-map slot. Unknown tags pass through unchanged.
func Normalize(tag string) string {
	tag = strings.TrimPrefix(tag, "*")
	if c, ok := aliases[tag]; ok {
		return c
	}
	return tag
}
