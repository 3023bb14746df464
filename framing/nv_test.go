package framing

import "testing"

func TestNVRoundTripSingleValue(t *testing.T) {
	h := NewHeaders()
	h.Set("content-type", "text/plain")

	enc := newNVCodec()
	block, err := enc.EncodeHeaders(h)
	if err != nil {
		t.Fatal(err)
	}

	dec := newNVCodec()
	out, err := dec.DecodeHeaders(block)
	if err != nil {
		t.Fatal(err)
	}
	if !h.Equal(out) {
		t.Fatalf("got %v, want %v", out, h)
	}
}

func TestNVMultiValueSplitsOnNUL(t *testing.T) {
	h := NewHeaders()
	h.SetValues("set-cookie", []string{"a=1", "b=2"})

	enc := newNVCodec()
	block, err := enc.EncodeHeaders(h)
	if err != nil {
		t.Fatal(err)
	}

	dec := newNVCodec()
	out, err := dec.DecodeHeaders(block)
	if err != nil {
		t.Fatal(err)
	}
	values := out.Values("set-cookie")
	if len(values) != 2 || values[0] != "a=1" || values[1] != "b=2" {
		t.Fatalf("got %v, want [a=1 b=2]", values)
	}
}

func TestNVWithoutNULIsSingleValue(t *testing.T) {
	h := NewHeaders()
	h.Set("x-single", "only-one")

	enc := newNVCodec()
	block, _ := enc.EncodeHeaders(h)
	dec := newNVCodec()
	out, err := dec.DecodeHeaders(block)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Values("x-single")) != 1 {
		t.Fatalf("got %v, want exactly one value", out.Values("x-single"))
	}
}

func TestCompressorStatePersistsAcrossBlocks(t *testing.T) {
	enc := newNVCodec()
	dec := newNVCodec()

	h1 := NewHeaders()
	h1.Set(":method", "GET")
	block1, err := enc.EncodeHeaders(h1)
	if err != nil {
		t.Fatal(err)
	}
	out1, err := dec.DecodeHeaders(block1)
	if err != nil {
		t.Fatal(err)
	}
	if !h1.Equal(out1) {
		t.Fatalf("block 1: got %v, want %v", out1, h1)
	}

	h2 := NewHeaders()
	h2.Set(":method", "POST")
	h2.Set(":path", "/submit")
	block2, err := enc.EncodeHeaders(h2)
	if err != nil {
		t.Fatal(err)
	}
	out2, err := dec.DecodeHeaders(block2)
	if err != nil {
		t.Fatal(err)
	}
	if !h2.Equal(out2) {
		t.Fatalf("block 2: got %v, want %v", out2, h2)
	}
}
