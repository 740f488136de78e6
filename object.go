package pdf

import (
	"sort"

	"github.com/vasekp/pdfbreak/internal/encoding"
)

// An Object is one of the PDF object variants: Null, Boolean, Numeric,
// String, Name, Array, Dict, Stream, Indirect, or the parse-failure
// placeholder Invalid.
//
// A failed parse never loses structure: the affected node carries a
// diagnostic in its error field, or is replaced by an Invalid, and the
// surrounding tree remains usable and serializable.
type Object interface {
	// Failed reports whether the node or any of its mandatory parts
	// carries a parse error.
	Failed() bool
	// String returns the serialized form of the object (see Dump).
	String() string

	write(p *printer, off int)
}

// Null is the PDF null object. It doubles as the end-of-input marker among
// top-level objects.
type Null struct{}

func (Null) Failed() bool { return false }

// Boolean is the PDF true/false object.
type Boolean bool

func (Boolean) Failed() bool { return false }

// String is a PDF string: raw bytes plus a flag recording whether the
// source used the hexadecimal form. The bytes are kept exactly as decoded;
// no character-set conversion is applied. Err carries the diagnostic of a
// partial parse.
type String struct {
	Val []byte
	Hex bool
	Err string
}

func (s String) Failed() bool { return s.Err != "" }

// Text interprets the string bytes as text: UTF-16BE when the byte order
// mark is present and the length is even, PDFDocEncoding when every byte
// has a mapping, raw bytes otherwise. The stored bytes are not modified.
func (s String) Text() string {
	if encoding.IsUTF16(s.Val) {
		return encoding.UTF16Decode(s.Val)
	}
	if encoding.IsPDFDocEncoded(s.Val) {
		return encoding.PDFDocDecode(s.Val)
	}
	return string(s.Val)
}

// Name is a PDF name, stored without the leading slash.
type Name string

func (Name) Failed() bool { return false }

// Array is an ordered sequence of objects. A non-empty Err marks a partial
// parse; the elements gathered before the failure are retained.
type Array struct {
	Val []Object
	Err string
}

func (a Array) Failed() bool { return a.Err != "" }

// Dict is a PDF dictionary. Keys are unique; when the source repeats a key
// the first occurrence wins and the dictionary is flagged with an error.
type Dict struct {
	Val map[Name]Object
	Err string
}

func (d Dict) Failed() bool { return d.Err != "" }

// Get returns the value stored under key, or nil when absent.
func (d Dict) Get(key Name) Object {
	return d.Val[key]
}

// Keys returns the dictionary keys in sorted order.
func (d Dict) Keys() []Name {
	keys := make([]string, 0, len(d.Val))
	for k := range d.Val {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	out := make([]Name, len(keys))
	for i, k := range keys {
		out[i] = Name(k)
	}
	return out
}

// Stream is a dictionary immediately followed by a raw byte payload.
// Streams only arise from the syntactic dict-stream-endstream adjacency in
// a named object, never as a value deeper in the tree.
type Stream struct {
	Dict Dict
	Data []byte
	Err  string
}

func (s Stream) Failed() bool { return s.Err != "" || s.Dict.Failed() }

// Indirect is an unresolved reference to a numbered object. Resolution
// belongs to a cross-reference layer, not to the parser.
type Indirect struct {
	Num uint64
	Gen uint64
}

func (Indirect) Failed() bool { return false }

// Invalid stands in for an object that could not be parsed at all. Most
// messages embed the byte offset where the problem was detected; the
// end-of-input and object-stream messages carry none.
type Invalid struct {
	Msg string
}

func (Invalid) Failed() bool { return true }

// A TopLevelObject is an entry valid at file level: a NamedObject, an
// XRefTable, a Trailer, a StartXRef marker, Null for end of input, or
// Invalid for garbage the recovery protocol must skip.
type TopLevelObject interface {
	Failed() bool
	String() string

	write(p *printer, off int)
	topLevel()
}

func (Null) topLevel()    {}
func (Invalid) topLevel() {}

// NamedObject is a numbered object definition: num gen obj ... endobj.
type NamedObject struct {
	Num uint64
	Gen uint64
	Obj Object
	Err string
}

func (n NamedObject) Failed() bool { return n.Err != "" || n.Obj.Failed() }
func (NamedObject) topLevel()      {}

// XRefSection is one cross-reference subsection: its starting object
// number, entry count, and the 20-byte rows kept verbatim.
type XRefSection struct {
	Start uint64
	Count uint64
	Data  []byte
}

// XRefTable is a parsed cross-reference table. Row contents are preserved
// as raw bytes; interpreting them is left to the cross-reference layer.
type XRefTable struct {
	Sections []XRefSection
}

func (XRefTable) Failed() bool { return false }
func (XRefTable) topLevel()    {}

// Trailer is the trailer keyword with its dictionary and the byte offset
// where the keyword began.
type Trailer struct {
	Dict  Object
	Start int64
}

func (t Trailer) Failed() bool { return t.Dict.Failed() }
func (Trailer) topLevel()      {}

// StartXRef records the byte offset announced by a startxref marker.
type StartXRef struct {
	Offset int64
}

func (StartXRef) Failed() bool { return false }
func (StartXRef) topLevel()    {}
