package world

import "embermoor/internal/store"

// CharacterConn resolves the connection handle driving a character, if any.
func (w *World) CharacterConn(h store.Handle) (store.Handle, bool) {
	c, ok := w.Characters.Get(h)
	if !ok || !c.Conn.Valid() {
		return store.Handle{}, false
	}
	return c.Conn, true
}

// AppendOutput appends data to a connection's pending output buffer,
// flushed by the pulse loop's flush stage.
func (w *World) AppendOutput(conn store.Handle, data []byte) {
	c, ok := w.Connections.GetMut(conn)
	if !ok {
		return
	}
	c.Out = append(c.Out, data...)
}

// Tell appends a CRLF-terminated line directly to one connection's output,
// used for replies that go only to the acting connection (no room-scoped
// recipient resolution needed).
func (w *World) Tell(conn store.Handle, message string) {
	w.AppendOutput(conn, []byte(message+"\r\n"))
}
