// Package telnet implements the IAC/SB/SE framing codec embermoor speaks to
// its clients. Unlike a blocking line reader, Decoder.Feed consumes
// whatever bytes a single non-blocking socket read produced and returns the
// events found in them, so the pulse loop's single-threaded ingest stage can
// call it once per connection per pulse without ever stalling on I/O.
package telnet

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
)

// IAC command bytes (RFC 854).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	SE   byte = 240
)

// Option bytes this codec understands.
const (
	OptEcho         byte = 1
	OptSuppressGA   byte = 3
	OptTerminalType byte = 24
	OptCharset      byte = 42
)

const (
	charsetRequest byte = 1
	charsetAccept  byte = 2
	charsetReject  byte = 3
)

// EventKind discriminates the variants of Event.
type EventKind int

const (
	// Data carries a complete, unescaped application line (without the
	// telnet framing, with its CR/LF terminator intact).
	Data EventKind = iota
	// Negotiation carries a WILL/WONT/DO/DONT option byte.
	Negotiation
	// Subnegotiation carries the payload between SB and SE.
	Subnegotiation
	// UnknownIAC carries an IAC command byte this codec does not model
	// (NOP, AYT, break, etc.) so callers can ignore it deliberately.
	UnknownIAC
	// Error reports a framing problem worth logging (e.g. SB without a
	// matching SE before the buffer ran out is NOT an error — it is
	// buffered; Error is reserved for malformed negotiation sequences).
	Error
)

// Event is one decoded unit of telnet traffic.
type Event struct {
	Kind    EventKind
	Line    []byte // Data
	Verb    byte   // Negotiation: WILL/WONT/DO/DONT
	Option  byte   // Negotiation, Subnegotiation
	Payload []byte // Subnegotiation
	Command byte   // UnknownIAC
	Err     error  // Error
}

// Decoder accumulates partial telnet frames across non-blocking reads: a
// read that lands mid-escape-sequence or mid-line leaves a remainder that
// the next call picks back up.
type Decoder struct {
	buf       []byte
	charMap   *charmap.Charmap
	charsetOK bool
}

// NewDecoder returns a Decoder ready to consume bytes.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// CharsetMap reports the negotiated inbound/outbound charmap, if any.
func (d *Decoder) CharsetMap() (*charmap.Charmap, bool) {
	return d.charMap, d.charsetOK
}

// Feed appends newly read bytes and returns every event that can be
// decoded from the buffer so far. Bytes that don't yet form a complete
// unit (a partial escape, or a line with no terminator yet) remain
// buffered for the next Feed call.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	var line []byte

	i := 0
	for i < len(d.buf) {
		b := d.buf[i]
		if b != IAC {
			line = append(line, b)
			i++
			if b == '\n' {
				events = append(events, Event{Kind: Data, Line: append([]byte(nil), line...)})
				line = line[:0]
			}
			continue
		}

		// b == IAC: need at least one more byte to know what kind of
		// command this is.
		if i+1 >= len(d.buf) {
			break // partial escape, wait for more bytes
		}
		cmd := d.buf[i+1]

		switch cmd {
		case IAC:
			// Escaped literal 0xFF byte.
			line = append(line, IAC)
			i += 2
		case WILL, WONT, DO, DONT:
			if i+2 >= len(d.buf) {
				goto flush // need the option byte
			}
			opt := d.buf[i+2]
			events = append(events, Event{Kind: Negotiation, Verb: cmd, Option: opt})
			d.handleNegotiation(cmd, opt)
			i += 3
		case SB:
			end := indexSE(d.buf, i+2)
			if end < 0 {
				goto flush // subnegotiation not fully buffered yet
			}
			opt := byte(0)
			payload := d.buf[i+2 : end]
			if len(payload) > 0 {
				opt = payload[0]
				payload = payload[1:]
			}
			events = append(events, Event{Kind: Subnegotiation, Option: opt, Payload: append([]byte(nil), payload...)})
			d.handleSubnegotiation(opt, payload)
			i = end + 2 // skip past IAC SE
		case GA:
			events = append(events, Event{Kind: UnknownIAC, Command: GA})
			i += 2
		default:
			events = append(events, Event{Kind: UnknownIAC, Command: cmd})
			i += 2
		}
	}

flush:
	d.buf = append([]byte(nil), d.buf[i:]...)
	if len(line) > 0 {
		// Partial line with no terminator yet; prepend it back, with any
		// literal IAC byte escaped again, so the next Feed call resumes
		// mid-line instead of dropping or misreading it.
		pending := make([]byte, 0, len(line)+len(d.buf))
		for _, b := range line {
			pending = append(pending, b)
			if b == IAC {
				pending = append(pending, IAC)
			}
		}
		d.buf = append(pending, d.buf...)
	}
	return events
}

func indexSE(buf []byte, from int) int {
	for i := from; i+1 < len(buf); i++ {
		if buf[i] == IAC && buf[i+1] == SE {
			return i
		}
	}
	return -1
}

func (d *Decoder) handleNegotiation(verb, opt byte) {}

func (d *Decoder) handleSubnegotiation(opt byte, payload []byte) {
	if opt != OptCharset || len(payload) == 0 {
		return
	}
	if payload[0] != charsetAccept {
		return
	}
	name := string(bytes.TrimPrefix(payload[1:], []byte{';'}))
	if cm, ok := charsetList[normalizeCharsetName(name)]; ok {
		d.charMap = cm
		d.charsetOK = true
	}
}

func normalizeCharsetName(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c == '-' || c == '_' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

var charsetList = map[string]*charmap.Charmap{
	"ASCII":       charmap.ISO8859_1,
	"LATIN1":      charmap.ISO8859_1,
	"ISO88591":    charmap.ISO8859_1,
	"CP437":       charmap.CodePage437,
	"IBM437":      charmap.CodePage437,
	"MCP437":      charmap.CodePage437,
	"WINDOWS1252": charmap.Windows1252,
}

// Writer encodes application output into telnet's wire format, doubling any
// literal IAC byte so it can't be mistaken for the start of a command.
type Writer struct {
	charMap *charmap.Charmap
}

// NewWriter returns a Writer with no charset transcoding.
func NewWriter() *Writer {
	return &Writer{}
}

// SetCharmap installs the charmap negotiated for outbound bytes, or clears
// it when cm is nil.
func (w *Writer) SetCharmap(cm *charmap.Charmap) {
	w.charMap = cm
}

// Encode returns the wire bytes for a line of application output, doubling
// any IAC bytes present in it.
func (w *Writer) Encode(p []byte) []byte {
	if w.charMap != nil {
		if enc, err := w.charMap.NewEncoder().Bytes(p); err == nil {
			p = enc
		}
	}
	if bytes.IndexByte(p, IAC) < 0 {
		return p
	}
	out := make([]byte, 0, len(p))
	for _, b := range p {
		out = append(out, b)
		if b == IAC {
			out = append(out, IAC)
		}
	}
	return out
}

// GoAhead returns the IAC GA sequence sent after a prompt, for clients that
// honor RFC 854 go-ahead as a prompt boundary marker.
func GoAhead() []byte {
	return []byte{IAC, GA}
}

// NegotiationReply returns the wire bytes for a WILL/WONT/DO/DONT reply.
func NegotiationReply(verb, opt byte) []byte {
	return []byte{IAC, verb, opt}
}
