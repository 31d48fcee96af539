// Package pulse implements the single-threaded scheduler: adopt new
// sessions, ingest input, disconnect, execute commands, flush output,
// pace. Only this loop ever touches the world; no locking is required
// because nothing else observes that state.
package pulse

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"embermoor/commands"
	"embermoor/internal/login"
	"embermoor/internal/record"
	"embermoor/internal/store"
	"embermoor/internal/telnet"
	"embermoor/internal/text"
	"embermoor/internal/world"
)

// Loop owns the world and every live socket.
type Loop struct {
	World    *world.World
	Records  *record.Store
	Commands *commands.Registry
	Logins   <-chan login.Handoff
	Period   time.Duration
	Log      *slog.Logger

	// AdminAccount names the player whose commands run with
	// commands.Context.IsAdmin set. Empty disables the admin surface
	// entirely.
	AdminAccount string

	sockets   map[store.Handle]net.Conn
	decoders  map[store.Handle]*telnet.Decoder
	writers   map[store.Handle]*telnet.Writer
	passwords map[store.Handle]string

	pending  []pendingCommand
	shutdown chan struct{}
}

type pendingCommand struct {
	conn    store.Handle
	actor   store.Handle
	room    world.RoomID
	handler commands.Handler
	arg     string
	player  string
	hash    string
	admin   bool
}

// New returns a Loop ready to run.
func New(w *world.World, records *record.Store, reg *commands.Registry, logins <-chan login.Handoff, period time.Duration, log *slog.Logger) *Loop {
	return &Loop{
		World:     w,
		Records:   records,
		Commands:  reg,
		Logins:    logins,
		Period:    period,
		Log:       log,
		sockets:   make(map[store.Handle]net.Conn),
		decoders:  make(map[store.Handle]*telnet.Decoder),
		writers:   make(map[store.Handle]*telnet.Writer),
		passwords: make(map[store.Handle]string),
		shutdown:  make(chan struct{}),
	}
}

// Run executes pulses forever, respecting stop for cooperative shutdown or
// until an admin shutdown command fires, whichever comes first.
func (l *Loop) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-l.shutdown:
			return
		default:
		}
		l.Tick()
	}
}

// ShutdownRequested is closed once an admin has issued the shutdown
// command and this pulse's drain/persist sequence has completed.
func (l *Loop) ShutdownRequested() <-chan struct{} {
	return l.shutdown
}

// Tick runs exactly one pulse: adopt, ingest, disconnect, execute, flush,
// pace — in that order.
func (l *Loop) Tick() {
	start := time.Now()

	l.adopt()
	disconnects := l.ingest()
	l.disconnect(disconnects)
	l.execute()
	l.flush()

	l.pace(start)
}

// adopt drains the login hand-off channel (non-blocking) and resolves each
// hand-off: a reconnect reuses the player's live character (closing any
// connection still driving it, or reattaching a link-dead one); otherwise a
// fresh character is spawned, relocated to the starting room if its saved
// room no longer exists.
func (l *Loop) adopt() {
	for {
		select {
		case h := <-l.Logins:
			l.adoptOne(h)
		default:
			return
		}
	}
}

func (l *Loop) adoptOne(h login.Handoff) {
	// Case (a): a live character already exists for this player name — close
	// its connection if it still has one (a headless, link-dead character
	// has none) and attach the new one without relocating the character.
	for _, charH := range l.World.Characters.Handles() {
		c, _ := l.World.Characters.Get(charH)
		if !c.IsPlayer || !strings.EqualFold(c.ShortName(), h.PlayerName) {
			continue
		}
		if c.Conn.Valid() {
			l.closeConnection(c.Conn)
		}
		l.attachConnection(h.Conn, charH, h.PlayerName, h.Record.Password)
		return
	}

	// Case (c): fresh login. Relocate to the starting room if the saved
	// room no longer exists.
	room := world.RoomID(h.Record.Character.InRoom)
	if _, ok := l.World.Rooms[room]; !ok {
		room = world.StartingRoom
	}
	pronoun, _ := world.ParsePronoun(h.Record.Character.Pronoun)
	charH := l.World.SpawnCharacter(world.Character{
		Keywords:   h.Record.Character.Keywords,
		FormalName: h.Record.Character.FormalName,
		Pronoun:    pronoun,
		Room:       room,
		IsPlayer:   true,
		Inventory:  nil,
	})
	l.restoreInventory(charH, h.Record.Inventory)
	l.attachConnection(h.Conn, charH, h.PlayerName, h.Record.Password)
}

func (l *Loop) restoreInventory(charH store.Handle, items []record.ObjectSnapshot) {
	for _, item := range items {
		l.World.SpawnObjectInInventory(world.Object{
			Keywords:        item.Keywords,
			Name:            item.Name,
			RoomDescription: item.RoomDescription,
			Description:     item.Description,
		}, charH)
	}
}

func (l *Loop) attachConnection(conn net.Conn, charH store.Handle, playerName, passwordHash string) {
	remoteAddr := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remoteAddr = addr.String()
	}
	connH := l.World.Connections.Insert(world.Connection{
		Character:  charH,
		PlayerName: playerName,
		RemoteAddr: remoteAddr,
	})
	if cp, ok := l.World.Characters.GetMut(charH); ok {
		cp.Conn = connH
	}
	l.sockets[connH] = conn
	l.decoders[connH] = telnet.NewDecoder()
	l.writers[connH] = telnet.NewWriter()
	l.passwords[connH] = passwordHash

	c, _ := l.World.Characters.Get(charH)
	l.World.AppendOutput(connH, []byte(l.World.RenderRoom(c.Room, charH)))
	// The initial room render goes out immediately rather than waiting for
	// this pulse's flush stage: nothing else would ever drain it for a
	// connection adopted outside a full Tick.
	l.flushOne(connH)
}

func (l *Loop) closeConnection(connH store.Handle) {
	if conn, ok := l.sockets[connH]; ok {
		conn.Close()
	}
	l.removeConnection(connH)
}

func (l *Loop) removeConnection(connH store.Handle) {
	if c, ok := l.World.Connections.Get(connH); ok {
		if charH, ok := l.World.Characters.GetMut(c.Character); ok {
			charH.Conn = store.Handle{}
		}
	}
	l.World.Connections.Remove(connH)
	delete(l.sockets, connH)
	delete(l.decoders, connH)
	delete(l.writers, connH)
	delete(l.passwords, connH)
}

// ingest performs one non-blocking read per live connection and returns the
// connections that should be disconnected at the end of this pulse.
func (l *Loop) ingest() []store.Handle {
	var toDisconnect []store.Handle

	for _, connH := range l.World.Connections.Handles() {
		conn := l.sockets[connH]
		if conn == nil {
			continue
		}
		conn.SetReadDeadline(time.Now())
		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		if n == 0 {
			if isWouldBlock(err) {
				continue // benign, no data available yet
			}
			if err != nil && (errors.Is(err, io.EOF) || isReset(err)) {
				toDisconnect = append(toDisconnect, connH)
				continue
			}
			if err != nil {
				l.Log.Warn("transient read error", "conn", connH, "err", err)
			}
			continue
		}

		for _, ev := range l.decoders[connH].Feed(buf[:n]) {
			if ev.Kind != telnet.Data {
				continue
			}
			l.queueCommand(connH, ev.Line)
		}
	}
	return toDisconnect
}

func (l *Loop) queueCommand(connH store.Handle, line []byte) {
	c, ok := l.World.Connections.Get(connH)
	if !ok {
		return
	}
	char, ok := l.World.Characters.Get(c.Character)
	if !ok {
		return
	}

	verb, rest, ok := text.TakeCommand(string(line))
	if !ok {
		return
	}
	handler, _ := l.Commands.Resolve(verb)
	l.pending = append(l.pending, pendingCommand{
		conn:    connH,
		actor:   c.Character,
		room:    char.Room,
		handler: handler,
		arg:     rest,
		player:  char.FormalName,
		hash:    l.passwords[connH],
		admin:   l.AdminAccount != "" && strings.EqualFold(char.FormalName, l.AdminAccount),
	})
}

func (l *Loop) disconnect(handles []store.Handle) {
	for _, h := range handles {
		l.removeConnection(h)
	}
}

func (l *Loop) execute() {
	fifo := l.pending
	l.pending = nil

	for _, cmd := range fifo {
		if cmd.handler == nil {
			l.World.Tell(cmd.conn, commands.UnknownCommandReply)
			continue
		}
		result := cmd.handler(&commands.Context{
			Conn:         cmd.conn,
			Actor:        cmd.actor,
			Room:         cmd.room,
			Arg:          cmd.arg,
			World:        l.World,
			Records:      l.Records,
			PlayerName:   cmd.player,
			PasswordHash: cmd.hash,
			IsAdmin:      cmd.admin,
		})
		if result.Shutdown {
			l.beginShutdown()
		}
		if result.Disconnect {
			// Flush this connection's buffered reply (e.g. "Goodbye!") before
			// tearing it down — otherwise closeConnection's removeConnection
			// would drop the pending Out buffer along with the connection
			// record before this pulse's flush stage ever runs.
			l.flushOne(cmd.conn)
			l.closeConnection(cmd.conn)
		}
	}
}

// beginShutdown runs the drain/persist sequence for the admin shutdown
// command: warn every connected player, save every
// connected player character (this is the one place in the pulse loop that
// needs both a character and its password hash, so it can't reuse
// commands.saveCharacter), then signal Run to stop after this pulse's
// flush. Idempotent — a second shutdown command in the same pulse is a
// no-op.
func (l *Loop) beginShutdown() {
	select {
	case <-l.shutdown:
		return
	default:
	}

	for _, connH := range l.World.Connections.Handles() {
		l.World.Tell(connH, "The server is shutting down. Your character has been saved.")
	}
	l.persistAllConnected()
	close(l.shutdown)
}

func (l *Loop) persistAllConnected() {
	for _, connH := range l.World.Connections.Handles() {
		conn, ok := l.World.Connections.Get(connH)
		if !ok || conn.PlayerName == "" {
			continue
		}
		char, ok := l.World.Characters.Get(conn.Character)
		if !ok || !char.IsPlayer {
			continue
		}
		rec := record.Record{
			Name:     conn.PlayerName,
			Password: l.passwords[connH],
			Character: record.Character{
				Keywords:   char.Keywords,
				FormalName: char.FormalName,
				Pronoun:    char.Pronoun.String(),
				InRoom:     int(char.Room),
			},
			Inventory: snapshotInventory(l.World, char.Inventory),
		}
		if err := l.Records.Save(rec); err != nil {
			l.Log.Warn("shutdown save failed", "player", conn.PlayerName, "err", err)
		}
	}
}

func snapshotInventory(w *world.World, handles []store.Handle) []record.ObjectSnapshot {
	out := make([]record.ObjectSnapshot, 0, len(handles))
	for _, h := range handles {
		o, ok := w.Objects.Get(h)
		if !ok {
			continue
		}
		out = append(out, record.ObjectSnapshot{
			Keywords:        o.Keywords,
			Name:            o.Name,
			RoomDescription: o.RoomDescription,
			Description:     o.Description,
		})
	}
	return out
}

func (l *Loop) flush() {
	for _, connH := range l.World.Connections.Handles() {
		l.flushOne(connH)
	}
}

// flushOne writes one connection's buffered output, if any. Used both by
// the per-pulse flush stage and to drain a connection's final reply (e.g.
// "Goodbye!") before execute tears it down.
func (l *Loop) flushOne(connH store.Handle) {
	c, ok := l.World.Connections.GetMut(connH)
	if !ok || len(c.Out) == 0 {
		return
	}
	conn := l.sockets[connH]
	if conn == nil {
		c.Out = nil
		return
	}
	out := c.Out
	if w := l.writers[connH]; w != nil {
		if d := l.decoders[connH]; d != nil {
			if cm, ok := d.CharsetMap(); ok {
				w.SetCharmap(cm)
			}
		}
		out = w.Encode(out)
	}
	// The GO-AHEAD goes on after encoding so its IAC is not doubled.
	out = append(out, telnet.GoAhead()...)
	if _, err := conn.Write(out); err != nil {
		l.Log.Warn("write failed", "conn", connH, "err", err)
	}
	c.Out = nil
}

func (l *Loop) pace(start time.Time) {
	elapsed := time.Since(start)
	if elapsed >= l.Period {
		l.Log.Warn("pulse overran its period", "elapsed", elapsed, "period", l.Period)
		return
	}
	time.Sleep(l.Period - elapsed)
}

func isWouldBlock(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isReset(err error) bool {
	return errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "reset by peer") || strings.Contains(err.Error(), "broken pipe")
}
