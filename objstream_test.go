package pdf

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func objStm(n, first int64, payload string, extra map[Name]Object) *Stream {
	dict := map[Name]Object{
		"Type":  Name("ObjStm"),
		"N":     Numeric{Val: n},
		"First": Numeric{Val: first},
	}
	for k, v := range extra {
		dict[k] = v
	}
	return &Stream{Dict: Dict{Val: dict}, Data: []byte(payload)}
}

func TestObjStreamRead(t *testing.T) {
	o, err := NewObjStream(objStm(2, 8, "1 0 2 3 12 (hi)", nil), nil)
	if err != nil {
		t.Fatalf("NewObjStream: %v", err)
	}
	defer o.Close()

	wantEntries := []ObjStreamEntry{{Num: 1, Offset: 0}, {Num: 2, Offset: 3}}
	if diff := cmp.Diff(wantEntries, o.Entries()); diff != "" {
		t.Fatalf("Entries mismatch (-want +got):\n%s", diff)
	}

	want := []TopLevelObject{
		NamedObject{Num: 1, Gen: 0, Obj: Numeric{Val: 12}},
		NamedObject{Num: 2, Gen: 0, Obj: String{Val: []byte("hi")}},
		Null{},
		Null{},
	}
	for i, w := range want {
		got, err := o.Read()
		if err != nil {
			t.Fatalf("Read #%d: %v", i, err)
		}
		if diff := cmp.Diff(w, got); diff != "" {
			t.Errorf("Read #%d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestObjStreamRewind(t *testing.T) {
	o, err := NewObjStream(objStm(2, 8, "1 0 2 3 12 (hi)", nil), nil)
	if err != nil {
		t.Fatalf("NewObjStream: %v", err)
	}
	defer o.Close()

	for i := 0; i < 2; i++ {
		if _, err := o.Read(); err != nil {
			t.Fatalf("Read #%d: %v", i, err)
		}
	}
	if err := o.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	got, err := o.Read()
	if err != nil {
		t.Fatalf("Read after Rewind: %v", err)
	}
	want := TopLevelObject(NamedObject{Num: 1, Gen: 0, Obj: Numeric{Val: 12}})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read after Rewind mismatch (-want +got):\n%s", diff)
	}
}

// The stream payload goes through the filter chain before the header and
// objects are read from it.
func TestObjStreamCompressed(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write([]byte("1 0 2 3 12 (hi)"))
	zw.Close()

	s := objStm(2, 8, buf.String(), map[Name]Object{"Filter": Name("FlateDecode")})
	o, err := NewObjStream(s, nil)
	if err != nil {
		t.Fatalf("NewObjStream: %v", err)
	}
	defer o.Close()

	got, err := o.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := TopLevelObject(NamedObject{Num: 1, Gen: 0, Obj: Numeric{Val: 12}})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read mismatch (-want +got):\n%s", diff)
	}
}

func TestObjStreamHeaderErrors(t *testing.T) {
	tests := map[string]struct {
		s    *Stream
		want string
	}{
		"missing N": {
			&Stream{Dict: Dict{Val: map[Name]Object{"First": Numeric{Val: 8}}}},
			"Object stream lacks required fields",
		},
		"missing First": {
			&Stream{Dict: Dict{Val: map[Name]Object{"N": Numeric{Val: 2}}}},
			"Object stream lacks required fields",
		},
		"negative N": {
			objStm(-1, 8, "", nil),
			"Object stream lacks required fields",
		},
		"fractional First": {
			&Stream{Dict: Dict{Val: map[Name]Object{
				"N": Numeric{Val: 1}, "First": Numeric{Val: 85, DP: 1},
			}}},
			"Object stream lacks required fields",
		},
		"broken header pairs": {
			objStm(2, 8, "1 x 2 3 ", nil),
			"Broken object stream header",
		},
		"truncated header": {
			objStm(2, 8, "1 0 ", nil),
			"Broken object stream header",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewObjStream(tc.s, nil)
			oserr, ok := err.(*ObjStreamError)
			if !ok {
				t.Fatalf("err = %v, want *ObjStreamError", err)
			}
			if oserr.Msg != tc.want {
				t.Errorf("Msg = %q, want %q", oserr.Msg, tc.want)
			}
		})
	}
}

// A parse failure inside the stream is reported as a bare Invalid; the
// stream latches and refuses further reads.
func TestObjStreamFailureLatch(t *testing.T) {
	o, err := NewObjStream(objStm(2, 8, "1 0 2 3 } (hi)", nil), nil)
	if err != nil {
		t.Fatalf("NewObjStream: %v", err)
	}
	defer o.Close()

	got, err := o.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := TopLevelObject(Invalid{"Garbage or unexpected token at 8"})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read mismatch (-want +got):\n%s", diff)
	}

	if _, err := o.Read(); err == nil {
		t.Error("Read after failure: err = nil, want latched error")
	}

	if err := o.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if _, err := o.Read(); err != nil {
		t.Errorf("Read after Rewind: %v, want nil", err)
	}
}

// A failed composite that is not itself an Invalid still comes back as
// a bare Invalid rather than the partial parse.
func TestObjStreamCompositeFailure(t *testing.T) {
	o, err := NewObjStream(objStm(1, 4, "1 0 [1", nil), nil)
	if err != nil {
		t.Fatalf("NewObjStream: %v", err)
	}
	defer o.Close()

	got, err := o.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := TopLevelObject(Invalid{"Broken object inside object stream"})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read mismatch (-want +got):\n%s", diff)
	}
	if _, err := o.Read(); err == nil {
		t.Error("Read after failure: err = nil, want latched error")
	}
}

func TestObjStreamUnpackError(t *testing.T) {
	s := objStm(1, 4, "not zlib at all", map[Name]Object{"Filter": Name("FlateDecode")})
	_, err := NewObjStream(s, nil)
	oserr, ok := err.(*ObjStreamError)
	if !ok {
		t.Fatalf("err = %v, want *ObjStreamError", err)
	}
	if oserr.Msg != "Couldn't unpack object stream" {
		t.Errorf("Msg = %q, want %q", oserr.Msg, "Couldn't unpack object stream")
	}
	if oserr.Unwrap() == nil {
		t.Error("Unwrap() = nil, want wrapped cause")
	}
}
