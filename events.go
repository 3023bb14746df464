package spdy3

import "github.com/mkch/spdy3/framing"

// EventKind tags the variant of an Event returned from Poll.
type EventKind int

const (
	EventHeadersReceived EventKind = iota
	EventDataReceived
	EventStreamClosed
	EventConnectionGoAway
	EventSettingsReceived
	EventPingReply
)

// Event is one inbound occurrence surfaced by Poll. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind     EventKind
	StreamID uint32

	Headers  *framing.Headers                // EventHeadersReceived
	Data     []byte                          // EventDataReceived
	Status   uint32                          // EventStreamClosed (rst status) / EventConnectionGoAway
	LastID   uint32                          // EventConnectionGoAway
	Settings map[uint32]framing.SettingEntry // EventSettingsReceived
	PingID   uint32                          // EventPingReply
}
