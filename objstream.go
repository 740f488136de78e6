package pdf

import (
	"io"
)

// An ObjStreamError reports a failure constructing or reading a compressed
// object stream.
type ObjStreamError struct {
	Msg string
	Err error // underlying cause, may be nil
}

func (e *ObjStreamError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ObjStreamError) Unwrap() error { return e.Err }

// An ObjStreamEntry is one header pair of an object stream: the object
// number and the byte offset of its body relative to /First. The offsets
// are kept for random access by downstream layers; sequential reading does
// not consult them.
type ObjStreamEntry struct {
	Num    uint64
	Offset int64
}

// An ObjStream reads the objects embedded in a compressed object stream
// (/Type /ObjStm). The stream payload is decoded through a Codec, the
// header pairs are read, and each Read then yields the next embedded
// object as a NamedObject with generation 0.
type ObjStream struct {
	src     *Stream
	codec   Codec
	rc      io.ReadCloser
	tk      tokenizer
	entries []ObjStreamEntry
	first   int64
	idx     int
	failed  bool
}

// NewObjStream unpacks the header of an object stream. The dictionary must
// carry non-negative integral /N and /First entries. A nil codec selects
// the default DecoderChain.
func NewObjStream(s *Stream, codec Codec) (o *ObjStream, err error) {
	defer catch(&err)
	if codec == nil {
		codec = DecoderChain{}
	}
	n, okN := s.Dict.Get("N").(Numeric)
	first, okFirst := s.Dict.Get("First").(Numeric)
	if !okN || !n.IsUint() || !okFirst || !first.IsUint() {
		return nil, &ObjStreamError{Msg: "Object stream lacks required fields"}
	}
	rc, cerr := codec.Open(s)
	if cerr != nil {
		return nil, &ObjStreamError{Msg: "Couldn't unpack object stream", Err: cerr}
	}
	o = &ObjStream{
		src:   s,
		codec: codec,
		rc:    rc,
		first: first.Int64(),
	}
	o.tk.attach(newBuffer(rc, 0))
	count := int(n.Uint64())
	for i := 0; i < count; i++ {
		num := parseNumeric(o.tk.read())
		off := parseNumeric(o.tk.read())
		if !num.IsUint() || !off.IsUint() {
			rc.Close()
			return nil, &ObjStreamError{Msg: "Broken object stream header"}
		}
		o.entries = append(o.entries, ObjStreamEntry{Num: num.Uint64(), Offset: off.Int64()})
	}
	return o, nil
}

// Entries returns the header pairs in file order.
func (o *ObjStream) Entries() []ObjStreamEntry {
	return o.entries
}

// Read returns the next embedded object, wrapped in a NamedObject with the
// number announced by the header and generation 0. After the last object
// it returns Null. A parse failure returns a bare Invalid (the parser's own
// when the failed node is an Invalid, a generic one for a failed composite)
// and latches the stream as failed; further reads error.
func (o *ObjStream) Read() (tlo TopLevelObject, err error) {
	defer catch(&err)
	if o.failed {
		return nil, &ObjStreamError{Msg: "Read on a failed ObjStream"}
	}
	if o.idx >= len(o.entries) {
		return Null{}, nil
	}
	obj := readObject(&o.tk)
	if obj.Failed() {
		o.failed = true
		o.idx++
		if inv, ok := obj.(Invalid); ok {
			return inv, nil
		}
		return Invalid{"Broken object inside object stream"}, nil
	}
	num := o.entries[o.idx].Num
	o.idx++
	return NamedObject{Num: num, Gen: 0, Obj: obj}, nil
}

// Rewind restarts iteration at the first embedded object. Decoded sources
// are not seekable, so a fresh one is opened through the codec and /First
// bytes are discarded to skip the header.
func (o *ObjStream) Rewind() (err error) {
	defer catch(&err)
	rc, cerr := o.codec.Open(o.src)
	if cerr != nil {
		return &ObjStreamError{Msg: "Couldn't unpack object stream", Err: cerr}
	}
	o.rc.Close()
	o.rc = rc
	b := newBuffer(rc, 0)
	if skipped := b.readN(int(o.first)); int64(len(skipped)) < o.first {
		return &ObjStreamError{Msg: "Broken object stream header"}
	}
	o.tk.attach(b)
	o.idx = 0
	o.failed = false
	return nil
}

// Close releases the decoded source.
func (o *ObjStream) Close() error {
	return o.rc.Close()
}
