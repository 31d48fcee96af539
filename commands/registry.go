// Package commands implements the command table and dispatch, plus the
// well-known movement/look/inventory/save/quit verbs every client
// connection can run.
package commands

import (
	"fmt"

	"embermoor/internal/broadcast"
	"embermoor/internal/record"
	"embermoor/internal/store"
	"embermoor/internal/text"
	"embermoor/internal/world"
)

// Context is what the pulse loop's execute stage gives a handler: the
// mover's connection and character handles, the room captured at parse
// time (to avoid re-lookup races inside the handler), the argument tail,
// and the world. Handlers may suspend no state across calls.
type Context struct {
	Conn         store.Handle
	Actor        store.Handle
	Room         world.RoomID
	Arg          string
	World        *world.World
	Records      *record.Store
	PlayerName   string
	PasswordHash string
	// IsAdmin reports whether PlayerName matches the configured admin
	// account, letting handlers gate operator-only verbs.
	IsAdmin bool
}

// Result tells the pulse loop what happened after a handler ran.
type Result struct {
	// Disconnect requests the connection be torn down after this pulse's
	// execute stage (used by quit).
	Disconnect bool
	// Shutdown requests the pulse loop warn and persist every connected
	// player and stop after this pulse (used by shutdown); main then closes
	// the listener.
	Shutdown bool
}

// Handler executes one command.
type Handler func(*Context) Result

// Definition names one command and its aliases.
type Definition struct {
	Name    string
	Aliases []string
}

type entry struct {
	def     Definition
	handler Handler
}

// Registry is a static command table with partial-match dispatch.
type Registry struct {
	table []text.KV[*entry]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Define registers a command under its name and any aliases, in table
// order — table order decides partial-match precedence.
func (r *Registry) Define(def Definition, handler Handler) {
	e := &entry{def: def, handler: handler}
	r.table = append(r.table, text.KV[*entry]{Key: def.Name, Value: e})
	for _, alias := range def.Aliases {
		r.table = append(r.table, text.KV[*entry]{Key: alias, Value: e})
	}
}

// Resolve finds the handler a command word partial-matches, if any.
func (r *Registry) Resolve(word string) (Handler, bool) {
	e, ok := text.Lookup(r.table, word)
	if !ok {
		return nil, false
	}
	return e.handler, true
}

// UnknownCommandReply is sent when no command partial-matches the input.
const UnknownCommandReply = "I have no idea what that means!"

// broadcastTo is a small helper every handler below uses to send a
// room-scoped broadcast through the world's connection back-pointers.
func broadcastTo(w *world.World, room world.RoomID, recipients broadcast.Recipients, message string) {
	broadcast.Send(recipients, w.RoomCharacters(room), message, w.CharacterConn, w.AppendOutput)
}

// Default returns the registry populated with every well-known command:
// movement verbs, look, inventory, get/take/drop/give, save, and quit.
func Default() *Registry {
	r := NewRegistry()
	registerMovement(r)
	registerLook(r)
	registerInventory(r)
	registerSession(r)
	registerAdmin(r)
	return r
}

func replyf(ctx *Context, format string, args ...any) {
	ctx.World.Tell(ctx.Conn, fmt.Sprintf(format, args...))
}
