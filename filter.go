// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Decoding of stream filters.

package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"fmt"
	"io"
	"log/slog"
)

// A Codec turns a stream's stored bytes into a decoded byte source.
// Codecs are consulted by ObjStream and may be used directly by callers;
// plain syntax parsing never decodes.
type Codec interface {
	Open(s *Stream) (io.ReadCloser, error)
}

// A DecodeError reports a failure inside the filter chain.
type DecodeError struct {
	Component string
	Message   string
	Pos       int64 // byte position inside the decoded data, -1 when unknown
	Unhandled bool  // the filter is outside the recognised set
}

func (e *DecodeError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s: %s at position %d", e.Component, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Message)
}

// RawReader returns a reader over the stored stream bytes with no filters
// applied. It is always available, whether or not the filter chain can
// handle the stream.
func (s *Stream) RawReader() io.Reader {
	return bytes.NewReader(s.Data)
}

// DecoderChain is the default Codec. It reads /Filter (absent, a name, or
// an array of names) and /DecodeParms from the stream dictionary and
// builds the decoding pipeline in order. FlateDecode, ASCII85Decode,
// ASCIIHexDecode and RunLengthDecode are recognised; FlateDecode supports
// the PNG-Up predictor. Anything else fails with a DecodeError marked
// Unhandled.
type DecoderChain struct{}

func (DecoderChain) Open(s *Stream) (io.ReadCloser, error) {
	filters, parms, err := filterList(s.Dict)
	if err != nil {
		return nil, err
	}
	r := io.NopCloser(s.RawReader())
	for i, name := range filters {
		next, err := openFilter(name, parms[i], r)
		if err != nil {
			r.Close()
			return nil, err
		}
		r = next
	}
	return r, nil
}

// filterList flattens the /Filter and /DecodeParms entries into parallel
// slices. A missing or null parameter entry yields a zero Dict.
func filterList(dict Dict) ([]Name, []Dict, error) {
	var filters []Name
	switch f := dict.Get("Filter").(type) {
	case nil, Null:
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f.Val {
			name, ok := item.(Name)
			if !ok {
				return nil, nil, &DecodeError{Component: "Filter", Message: "malformed /Filter array", Pos: -1}
			}
			filters = append(filters, name)
		}
	default:
		return nil, nil, &DecodeError{Component: "Filter", Message: "malformed /Filter entry", Pos: -1}
	}

	parms := make([]Dict, len(filters))
	switch p := dict.Get("DecodeParms").(type) {
	case nil, Null:
	case Dict:
		if len(parms) > 0 {
			parms[0] = p
		}
	case Array:
		for i, item := range p.Val {
			if i >= len(parms) {
				break
			}
			if d, ok := item.(Dict); ok {
				parms[i] = d
			}
		}
	default:
		slog.Debug("ignoring malformed /DecodeParms entry")
	}
	return filters, parms, nil
}

func dictInt(d Dict, key Name, dflt int64) int64 {
	if n, ok := d.Get(key).(Numeric); ok && n.IsIntegral() {
		return n.Int64()
	}
	return dflt
}

func openFilter(name Name, parm Dict, inner io.ReadCloser) (io.ReadCloser, error) {
	switch name {
	case "FlateDecode":
		zr, err := zlib.NewReader(inner)
		if err != nil {
			return nil, &DecodeError{Component: "FlateDecode", Message: err.Error(), Pos: -1}
		}
		var r io.Reader = zr
		switch pred := dictInt(parm, "Predictor", 1); pred {
		case 1:
			// no predictor
		case 12:
			if colors := dictInt(parm, "Colors", 1); colors != 1 {
				return nil, &DecodeError{Component: "FlateDecode", Message: fmt.Sprintf("unsupported Colors value %d", colors), Pos: -1}
			}
			if bpc := dictInt(parm, "BitsPerComponent", 8); bpc != 8 {
				return nil, &DecodeError{Component: "FlateDecode", Message: fmt.Sprintf("unsupported BitsPerComponent value %d", bpc), Pos: -1}
			}
			columns := dictInt(parm, "Columns", 1)
			r = newPNGUpReader(zr, int(columns))
		default:
			return nil, &DecodeError{Component: "FlateDecode", Message: fmt.Sprintf("unsupported predictor %d", pred), Pos: -1}
		}
		return &readCloser{r, closeAll(zr, inner)}, nil

	case "ASCII85Decode":
		r := ascii85.NewDecoder(&alpha85Reader{r: inner})
		return &readCloser{r, inner.Close}, nil

	case "ASCIIHexDecode":
		return &readCloser{&hexReader{r: inner, half: -1}, inner.Close}, nil

	case "RunLengthDecode":
		return &readCloser{&runLengthReader{r: inner}, inner.Close}, nil

	default:
		slog.Debug("unhandled stream filter", "filter", string(name))
		return nil, &DecodeError{Component: string(name), Message: "unhandled filter", Pos: -1, Unhandled: true}
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }

func closeAll(closers ...io.Closer) func() error {
	return func() error {
		var first error
		for _, c := range closers {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
}

// pngUpReader undoes the PNG Up prediction applied row by row before
// compression: each output byte is the sum of the encoded byte and the
// byte above it in the previous row.
type pngUpReader struct {
	r    io.Reader
	hist []byte
	tmp  []byte
	pend []byte
}

func newPNGUpReader(r io.Reader, columns int) *pngUpReader {
	return &pngUpReader{
		r:    r,
		hist: make([]byte, 1+columns),
		tmp:  make([]byte, 1+columns),
	}
}

func (r *pngUpReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(r.pend) > 0 {
			m := copy(b, r.pend)
			n += m
			b = b[m:]
			r.pend = r.pend[m:]
			continue
		}
		_, err := io.ReadFull(r.r, r.tmp)
		if err != nil {
			return n, err
		}
		if r.tmp[0] != 2 {
			return n, &DecodeError{Component: "FlateDecode", Message: "malformed PNG-Up data", Pos: -1}
		}
		for i, c := range r.tmp {
			r.hist[i] += c
		}
		r.pend = r.hist[1:]
	}
	return n, nil
}

// alpha85Reader strips whitespace from base-85 data and stops at the ~
// that opens the ~> terminator, neither of which encoding/ascii85 accepts.
type alpha85Reader struct {
	r    io.Reader
	done bool
}

func (a *alpha85Reader) Read(p []byte) (int, error) {
	if a.done || len(p) == 0 {
		return 0, io.EOF
	}
	tmp := make([]byte, len(p))
	for {
		n, err := a.r.Read(tmp)
		out := 0
		for _, c := range tmp[:n] {
			if a.done {
				break
			}
			switch {
			case c == '~':
				a.done = true
			case isSpace(c):
				// ignore
			default:
				p[out] = c
				out++
			}
		}
		if out > 0 {
			return out, nil
		}
		if a.done || err == io.EOF {
			return 0, io.EOF
		}
		if err != nil {
			return 0, err
		}
	}
}

// hexReader decodes ASCIIHexDecode data: hex digit pairs with whitespace
// ignored, terminated by >, an odd trailing digit padded with a low zero.
type hexReader struct {
	r    io.Reader
	half int // pending high nibble, -1 when none
	done bool
	pad  bool // padded final byte still to deliver
	padb byte
}

func (h *hexReader) Read(p []byte) (int, error) {
	out := 0
	var one [1]byte
	if h.pad && out < len(p) {
		p[out] = h.padb
		out++
		h.pad = false
	}
	for out < len(p) && !h.done {
		n, err := h.r.Read(one[:])
		if n == 0 {
			if err == io.EOF {
				h.done = true
				break
			}
			if err != nil {
				return out, err
			}
			continue
		}
		c := one[0]
		switch {
		case c == '>':
			h.done = true
		case unhex(c) >= 0:
			if h.half < 0 {
				h.half = unhex(c)
			} else {
				p[out] = byte(h.half<<4 | unhex(c))
				out++
				h.half = -1
			}
		case isSpace(c):
			// ignore
		default:
			return out, &DecodeError{Component: "ASCIIHexDecode", Message: fmt.Sprintf("invalid character %q", c), Pos: -1}
		}
	}
	if h.done && h.half >= 0 {
		if out < len(p) {
			p[out] = byte(h.half << 4)
			out++
		} else {
			h.pad = true
			h.padb = byte(h.half << 4)
		}
		h.half = -1
	}
	if out == 0 && h.done && !h.pad {
		return 0, io.EOF
	}
	return out, nil
}

// runLengthReader decodes RunLengthDecode data: a length byte L copies the
// next L+1 bytes when L < 128, repeats the next byte 257-L times when
// L > 128, and 128 ends the data.
type runLengthReader struct {
	r    io.Reader
	pend []byte
	done bool
}

func (r *runLengthReader) Read(p []byte) (int, error) {
	out := 0
	for out < len(p) {
		if len(r.pend) > 0 {
			m := copy(p[out:], r.pend)
			out += m
			r.pend = r.pend[m:]
			continue
		}
		if r.done {
			break
		}
		var one [1]byte
		if _, err := io.ReadFull(r.r, one[:]); err != nil {
			if err == io.EOF {
				// Missing end-of-data marker; tolerated.
				r.done = true
				break
			}
			return out, err
		}
		switch l := int(one[0]); {
		case l == 128:
			r.done = true
		case l < 128:
			buf := make([]byte, l+1)
			if _, err := io.ReadFull(r.r, buf); err != nil {
				return out, &DecodeError{Component: "RunLengthDecode", Message: "truncated run", Pos: -1}
			}
			r.pend = buf
		default:
			if _, err := io.ReadFull(r.r, one[:]); err != nil {
				return out, &DecodeError{Component: "RunLengthDecode", Message: "truncated run", Pos: -1}
			}
			r.pend = bytes.Repeat(one[:], 257-l)
		}
	}
	if out == 0 && r.done {
		return 0, io.EOF
	}
	return out, nil
}
