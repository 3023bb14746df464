/*
Package fields implements the bit-packed wire encoding SPDY/3's
SettingsFrame uses for its repeated (id, flags, value) entries.

Encoder.Encode and Decoder.Decode drive a struct through reflection,
reading instructions from a "field" struct tag of the form
`field:"spec,spec:value,..."`. Every struct handled this way must be
byte-aligned: the sum of its fields' bit widths must be a multiple of 8.

Specs:

	bits:N     unsigned integer field occupying exactly N bits (1..32).
	lenbits:N  slice field, encoded as an N-bit element count followed
	           by each element in turn. N must be a multiple of 8.
	-          field is not part of the wire encoding.

Supported Go types: unsigned integers (bits) and slices of nested
structs (lenbits). Every other SPDY/3 frame body is small and
irregular enough that frames3.go encodes it directly with
encoding/binary instead of through this reflection engine.
*/
package fields
