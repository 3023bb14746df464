package fields

import (
	"bytes"
	"testing"
)

func TestReadBitsAcrossBoundaries(t *testing.T) {
	// 1,0,10, 0101, 111,1 1111 000,0 0000 0101 1010
	r := bytes.NewBuffer([]byte{0xA5, 0xFF, 0x00, 0x5A})
	d := NewDecoder(r)

	b, err := d.ReadBits(1)
	if b != 1 || err != nil || d.IsClean() {
		t.Fatalf("bit #0: got 0x%x %v %v, want 0x1 nil false", b, err, d.IsClean())
	}
	b, err = d.ReadBits(1)
	if b != 0 || err != nil || d.IsClean() {
		t.Fatalf("bit #1: got 0x%x %v %v, want 0x0 nil false", b, err, d.IsClean())
	}
	b, err = d.ReadBits(6)
	if b != 0x25 || err != nil || !d.IsClean() {
		t.Fatalf("bits #2-7: got 0x%x %v %v, want 0x25 nil true", b, err, d.IsClean())
	}
}

func TestWriteBitsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	if err := e.WriteBits(1, 1); err != nil {
		t.Fatal(err)
	}
	if err := e.WriteBits(31, 0x7FFFFFFF); err != nil {
		t.Fatal(err)
	}
	if !e.IsClean() {
		t.Fatal("encoder should be byte-aligned after a 32-bit total")
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Fatalf("got %x, want ffffffff", buf.Bytes())
	}

	d := NewDecoder(bytes.NewReader(buf.Bytes()))
	bit, err := d.ReadBits(1)
	if err != nil || bit != 1 {
		t.Fatalf("got %v %v, want 1 nil", bit, err)
	}
	rest, err := d.ReadBits(31)
	if err != nil || rest != 0x7FFFFFFF {
		t.Fatalf("got 0x%x %v, want 0x7FFFFFFF nil", rest, err)
	}
}
