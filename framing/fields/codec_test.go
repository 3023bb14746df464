package fields

import (
	"bytes"
	"testing"
)

type entry struct {
	Flags_ byte   `field:"bits:8"`
	ID_    uint32 `field:"bits:24"`
}

type withSlice struct {
	Entries []entry `field:"lenbits:32"`
}

func TestSliceOfStructRoundTrip(t *testing.T) {
	in := withSlice{Entries: []entry{{Flags_: 1, ID_: 2}, {Flags_: 3, ID_: 4}}}

	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(&in); err != nil {
		t.Fatal(err)
	}

	var out withSlice
	if err := NewDecoder(bytes.NewReader(buf.Bytes())).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Entries) != 2 || out.Entries[0] != in.Entries[0] || out.Entries[1] != in.Entries[1] {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

type notByteAligned struct {
	A byte `field:"bits:3"`
}

func TestDecodeRejectsUnalignedStruct(t *testing.T) {
	var v notByteAligned
	err := NewDecoder(bytes.NewReader([]byte{0xFF})).Decode(&v)
	if err == nil {
		t.Fatal("expected an error decoding a non-byte-aligned struct")
	}
}

type taggedOut struct {
	X1 byte   `field:"bits:1"`
	ID uint32 `field:"bits:31"`
}

func TestUint31Masking(t *testing.T) {
	in := taggedOut{ID: 0x7FFFFFFF}
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(&in); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x7F, 0xFF, 0xFF, 0xFF}) {
		t.Fatalf("got %x, want 7fffffff", buf.Bytes())
	}

	var out taggedOut
	if err := NewDecoder(bytes.NewReader(buf.Bytes())).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ID != 0x7FFFFFFF {
		t.Fatalf("got 0x%x, want 0x7FFFFFFF", out.ID)
	}
}
