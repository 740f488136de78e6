// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Reading of top-level PDF objects and error recovery.

package pdf

import (
	"bytes"
	"io"
	"log/slog"
)

// A Parser reads PDF syntax from a byte stream. The input should implement
// io.Seeker: stream-body rescue and endobj recovery reposition the cursor,
// and fail with ErrSeekUnsupported when they cannot.
//
// A Parser is not safe for concurrent use; parse independent inputs with
// independent parsers.
type Parser struct {
	b  *buffer
	tk tokenizer
}

// NewParser returns a parser reading from r, starting at its current
// position.
func NewParser(r io.Reader) *Parser {
	var offset int64
	if sk, ok := r.(io.Seeker); ok {
		if cur, err := sk.Seek(0, io.SeekCurrent); err == nil {
			offset = cur
		}
	}
	p := &Parser{b: newBuffer(r, offset)}
	p.tk.attach(p.b)
	return p
}

// ReadObject reads the next object. Malformed input is reported on the
// returned node, never through err; err is reserved for unusable inputs
// (read failures, unsupported seeks).
func (p *Parser) ReadObject() (obj Object, err error) {
	defer catch(&err)
	defer p.tk.rewind()
	return readObject(&p.tk), nil
}

// ReadTopLevel reads the next top-level object: a named object, xref
// table, trailer or startxref marker. Null marks end of input. Garbage
// yields an Invalid without consuming it; use SkipToEndobj to resynchronise
// and continue.
func (p *Parser) ReadTopLevel() (tlo TopLevelObject, err error) {
	defer catch(&err)
	defer p.tk.rewind()
	return readTopLevelObject(&p.tk), nil
}

// SkipToEndobj advances past the next endobj keyword that sits on a token
// boundary, leaving the cursor just behind it. It returns false when the
// input ends first.
func (p *Parser) SkipToEndobj() (found bool, err error) {
	defer catch(&err)
	p.tk.rewind()
	from := p.b.readOffset()
	found = skipToEndobj(p.b)
	p.tk.reset()
	if found {
		slog.Debug("skipped to endobj", "from", from, "to", p.b.readOffset())
	}
	return found, nil
}

// Offset returns the byte offset of the parser's logical position.
func (p *Parser) Offset() int64 {
	if n := len(p.tk.unread); n > 0 {
		return p.tk.unread[n-1].start
	}
	return p.b.readOffset()
}

// Seek repositions the parser at an absolute byte offset.
func (p *Parser) Seek(offset int64) (err error) {
	defer catch(&err)
	p.b.seekTo(offset)
	p.tk.reset()
	return nil
}

// readTopLevelObject dispatches on the next token. An unsigned number
// opens a named object; xref, trailer and startxref open their respective
// structures; end of input maps to Null; anything else is garbage, left
// unconsumed for the recovery protocol.
func readTopLevelObject(tk *tokenizer) TopLevelObject {
	t := tk.peek()
	switch {
	case t == "":
		return Null{}
	case parseNumeric(t).IsUint():
		return parseNamedObject(tk)
	case t == "xref":
		return parseXRefTable(tk)
	case t == "trailer":
		return parseTrailer(tk)
	case t == "startxref":
		return parseStartXRef(tk)
	default:
		return Invalid{"Garbage or unexpected token" + reportPosition(tk)}
	}
}

func parseNamedObject(tk *tokenizer) TopLevelObject {
	num := parseNumeric(tk.read())
	if !num.IsUint() {
		return Invalid{"Misshaped named object header (num)" + reportPosition(tk)}
	}
	gen := parseNumeric(tk.read())
	if !gen.IsUint() {
		return Invalid{"Misshaped named object header (gen)" + reportPosition(tk)}
	}
	if tk.read() != "obj" {
		return Invalid{"Misshaped named object header (obj)" + reportPosition(tk)}
	}
	contents := readObject(tk)
	if dict, ok := contents.(Dict); ok && tk.peek() == "stream" {
		contents = parseStream(tk, dict)
	}
	var errstr string
	if s := tk.read(); s != "endobj" {
		if s == "" {
			errstr = "End of input where endobj expected"
		} else {
			errstr = "endobj not found" + reportPosition(tk)
		}
	}
	return NamedObject{Num: num.Uint64(), Gen: gen.Uint64(), Obj: contents, Err: errstr}
}

func parseXRefTable(tk *tokenizer) TopLevelObject {
	tk.consume() // the "xref" keyword
	b := tk.b
	b.skipToEOL()
	var sections []XRefSection
	for {
		s := tk.peek()
		if s == "" {
			return Invalid{"End of input while reading xref table"}
		}
		if s == "trailer" {
			break
		}
		tk.consume()
		start := parseNumeric(s)
		if !start.IsUint() {
			return Invalid{"Broken xref subsection header (start)" + reportPosition(tk)}
		}
		count := parseNumeric(tk.read())
		if !count.IsUint() {
			return Invalid{"Broken xref subsection header (count)" + reportPosition(tk)}
		}
		b.skipToEOL()
		n := 20 * int(count.Uint64())
		data := b.readN(n)
		if len(data) < n {
			return Invalid{"End of input while reading xref table"}
		}
		sections = append(sections, XRefSection{Start: start.Uint64(), Count: count.Uint64(), Data: data})
	}
	return XRefTable{Sections: sections}
}

func parseTrailer(tk *tokenizer) TopLevelObject {
	tk.consume() // the "trailer" keyword
	start := tk.lastPos()
	return Trailer{Dict: readObject(tk), Start: start}
}

func parseStartXRef(tk *tokenizer) TopLevelObject {
	tk.consume() // the "startxref" keyword
	num := parseNumeric(tk.read())
	if !num.IsUint() {
		return Invalid{"Broken startxref" + reportPosition(tk)}
	}
	return StartXRef{Offset: num.Int64()}
}

// skipToEndobj scans forward for an endobj keyword on a token boundary.
// A match mid-line is confirmed by seeking to just past the keyword and
// checking that the following byte is not regular.
func skipToEndobj(b *buffer) bool {
	sep := []byte("endobj")
	for {
		line := b.readLine()
		if len(line) == 0 {
			return false
		}
		off := bytes.Index(line, sep)
		if off < 0 {
			continue
		}
		if off+len(sep) == len(line) {
			return true
		}
		b.seekTo(b.readOffset() - int64(len(line)-off-len(sep)))
		if after := b.peekByte(); b.eof || Classify(after) != ClassRegular {
			return true
		}
	}
}
