package fields

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Decoder reads bit-packed fields from an underlying io.Reader.
type Decoder struct {
	bo       binary.ByteOrder
	b        byte // left-over bits from a previous non-byte-aligned read
	leftOver int  // count of valid bits remaining in b
	readBuf  [4]byte
	r        io.Reader
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{bo: binary.BigEndian, r: r}
}

// IsClean reports whether the decoder is byte-aligned, i.e. has no
// pending bits left over from a ReadBits call.
func (d *Decoder) IsClean() bool {
	return d.leftOver == 0
}

// ReadBits reads the next count bits (1..32) as a big-endian unsigned
// integer.
func (d *Decoder) ReadBits(count int) (n uint32, err error) {
	if count <= 0 || count > 32 {
		return 0, errors.Errorf("fields: invalid bit count %d", count)
	}
	bitsNeeded := count - d.leftOver
	if bitsNeeded <= 0 {
		// The left-over byte already holds everything we need.
		n = uint32((d.b & (0xFF >> uint(8-d.leftOver))) >> uint(-bitsNeeded))
		d.leftOver = -bitsNeeded
		return
	}

	bytesNeeded := bitsNeeded / 8
	if bitsNeeded%8 != 0 {
		bytesNeeded++
	}

	buf := d.readBuf[len(d.readBuf)-bytesNeeded:]
	if _, err = io.ReadFull(d.r, buf); err != nil {
		return 0, err
	}

	n = d.bo.Uint32(d.readBuf[:])
	n &= 0xFFFFFFFF >> uint((len(d.readBuf)-bytesNeeded)*8)
	leftOver := bytesNeeded*8 - bitsNeeded
	if leftOver > 0 {
		n >>= uint(leftOver)
	}
	leftOverPatch := uint32(d.b&(0xFF>>uint(8-d.leftOver))) << uint(count-d.leftOver)
	n |= leftOverPatch

	d.leftOver = leftOver
	if d.leftOver > 0 {
		d.b = d.readBuf[len(d.readBuf)-1]
	}
	return
}

// Read implements io.Reader for byte-aligned content; it fails if
// there are pending bits from a partial ReadBits call.
func (d *Decoder) Read(data []byte) (int, error) {
	if !d.IsClean() {
		return 0, errors.New("fields: decoder is not byte-aligned")
	}
	return d.r.Read(data)
}

// Encoder writes bit-packed fields to an underlying io.Writer.
type Encoder struct {
	bo       binary.ByteOrder
	b        byte
	pending  int
	writeBuf [4]byte
	w        io.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{bo: binary.BigEndian, w: w}
}

// IsClean reports whether the encoder is byte-aligned.
func (e *Encoder) IsClean() bool {
	return e.pending == 0
}

// WriteBits writes the low count bits (1..32) of n, big-endian.
func (e *Encoder) WriteBits(count int, n uint32) (err error) {
	if count <= 0 || count > 32 {
		return errors.Errorf("fields: invalid bit count %d", count)
	}

	bitsToWrite := count + e.pending
	if bitsToWrite < 8 {
		e.b |= byte(n) << uint(8-bitsToWrite)
		e.pending = bitsToWrite
		return
	}

	buf := e.writeBuf[:]
	bytesToWrite := bitsToWrite / 8
	pending := bitsToWrite % 8
	if pending < 0 {
		pending = 0
	}
	b := byte(n << uint(32-pending) >> 24)
	n = n>>uint(pending) | uint32(e.b)<<uint(count-pending-8+e.pending)
	n <<= uint(32 - bytesToWrite*8)
	e.bo.PutUint32(buf, n)
	if bytesToWrite > 4 {
		bytesToWrite = 4
	}
	buf = buf[:bytesToWrite]
	if _, err = e.w.Write(buf); err != nil {
		return
	}
	e.b = b
	e.pending = pending
	return
}

// Write implements io.Writer for byte-aligned content; it fails if
// there are pending bits from a partial WriteBits call.
func (e *Encoder) Write(data []byte) (int, error) {
	if !e.IsClean() {
		return 0, errors.New("fields: encoder is not byte-aligned")
	}
	return e.w.Write(data)
}
