package framing

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"
)

// switchWriter lets the zlib.Writer keep its deflate history (and
// thus its compression state) while the destination buffer it drains
// into changes on every EncodeHeaders call.
type switchWriter struct{ io.Writer }

func (w *switchWriter) Switch(dst io.Writer) { w.Writer = dst }

// switchReader is the read-side counterpart: the zlib.Reader's
// inflate window survives across DecodeHeaders calls even though the
// compressed bytes it reads from are a fresh buffer each time.
type switchReader struct{ io.Reader }

func (r *switchReader) Switch(src io.Reader) { r.Reader = src }

// nvCodec holds the single compressor and single decompressor for a
// connection's lifetime. Both are seeded with HeaderDictionaryV3 on
// first use and are never reset or recreated: re-seeding mid-
// connection would desynchronise the peer, which keeps a matching
// pair of streams. Only the io.Writer/io.Reader each wraps is
// switched between calls, never the zlib state itself.
type nvCodec struct {
	zw  *zlib.Writer
	sw  switchWriter
	zr  io.ReadCloser
	sr  switchReader

	// zrSrc buffers exactly one block's compressed bytes per
	// DecodeHeaders call; the zlib.Reader pulls from it through sr.
	zrSrc *bytes.Buffer
}

func newNVCodec() *nvCodec {
	return &nvCodec{zrSrc: &bytes.Buffer{}}
}

// EncodeHeaders serialises h into the SPDY/3 uncompressed NV layout
// and compresses it through the connection's shared zlib writer,
// emitting a sync flush so the peer's decompressor can consume
// exactly this block before the next one arrives.
func (c *nvCodec) EncodeHeaders(h *Headers) ([]byte, error) {
	var raw bytes.Buffer
	names := h.sortedNames()
	if err := binary.Write(&raw, binary.BigEndian, uint32(len(names))); err != nil {
		return nil, err
	}
	for _, name := range names {
		if name == "" {
			return nil, badHeaderBlockf("empty header name")
		}
		value := joinValues(h.Values(name))
		if err := writeLenPrefixed(&raw, []byte(name)); err != nil {
			return nil, err
		}
		if err := writeLenPrefixed(&raw, []byte(value)); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	c.sw.Switch(&out)
	if c.zw == nil {
		zw, err := zlib.NewWriterLevelDict(&c.sw, zlib.BestCompression, HeaderDictionaryV3)
		if err != nil {
			return nil, err
		}
		c.zw = zw
	}
	if _, err := c.zw.Write(raw.Bytes()); err != nil {
		return nil, err
	}
	if err := c.zw.Flush(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeHeaders decompresses exactly one NV block and parses it into
// a Headers value. block must be the full compressed byte range for
// one frame's header block, as delimited by the frame's length field.
func (c *nvCodec) DecodeHeaders(block []byte) (*Headers, error) {
	c.zrSrc.Reset()
	c.zrSrc.Write(block)
	c.sr.Switch(c.zrSrc)

	var err error
	if c.zr == nil {
		c.zr, err = zlib.NewReaderDict(&c.sr, HeaderDictionaryV3)
		if err != nil {
			return nil, badHeaderBlockf("zlib: %v", err)
		}
	}

	// Read exactly the lengths the NV layout declares: reading past the
	// block's sync-flush boundary hits the end of the source, which
	// leaves the shared inflater failing for every later block.
	var raw bytes.Buffer
	read := func(n int64) error {
		_, err := io.CopyN(&raw, c.zr, n)
		return err
	}
	err = read(4)
	for i := uint64(0); err == nil && i < 2*uint64(binary.BigEndian.Uint32(raw.Bytes()[:4])); i++ {
		start := raw.Len()
		if err = read(4); err == nil {
			err = read(int64(binary.BigEndian.Uint32(raw.Bytes()[start:])))
		}
	}
	if err != nil {
		return nil, badHeaderBlockf("inflate: %v", err)
	}

	return parseNV(raw.Bytes())
}

func parseNV(raw []byte) (*Headers, error) {
	r := bytes.NewReader(raw)
	var numPairs uint32
	if err := binary.Read(r, binary.BigEndian, &numPairs); err != nil {
		return nil, badHeaderBlockf("truncated NV count: %v", err)
	}

	h := NewHeaders()
	for i := uint32(0); i < numPairs; i++ {
		name, err := readLenPrefixed(r)
		if err != nil {
			return nil, badHeaderBlockf("truncated name: %v", err)
		}
		if len(name) == 0 {
			return nil, badHeaderBlockf("empty header name")
		}
		value, err := readLenPrefixed(r)
		if err != nil {
			return nil, badHeaderBlockf("truncated value: %v", err)
		}
		h.SetValues(string(name), splitValues(value))
	}
	return h, nil
}

func writeLenPrefixed(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readLenPrefixed(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if int64(n) > int64(r.Len()) {
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func joinValues(values []string) string {
	out := values[0]
	for _, v := range values[1:] {
		out += "\x00" + v
	}
	return out
}

func splitValues(value []byte) []string {
	if !bytes.ContainsRune(value, 0) {
		return []string{string(value)}
	}
	parts := bytes.Split(value, []byte{0})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}
