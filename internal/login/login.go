// Package login implements the per-socket authentication pipeline: name
// prompt, verify-or-create, pronoun selection, and a bounded hand-off of
// the authenticated session to the pulse loop. Each accepted socket runs
// its own task concurrently with every other login in flight; none of
// them ever touch the world directly.
package login

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"embermoor/internal/record"
	"embermoor/internal/telnet"
	"embermoor/internal/world"
)

// Handoff is what a completed login task sends to the pulse loop: an
// unowned stream and the authenticated record it resolved.
type Handoff struct {
	Conn       net.Conn
	PlayerName string
	Record     record.Record
}

// Pipeline runs login tasks bounded by a weighted semaphore (admission
// control layered in front of the hand-off channel itself) and hands
// completed sessions to Out.
type Pipeline struct {
	Records *record.Store
	Out     chan<- Handoff
	Log     *slog.Logger

	admission *semaphore.Weighted
}

// NewPipeline returns a Pipeline that admits at most maxConcurrent login
// tasks at a time.
func NewPipeline(records *record.Store, out chan<- Handoff, log *slog.Logger, maxConcurrent int64) *Pipeline {
	return &Pipeline{
		Records:   records,
		Out:       out,
		Log:       log,
		admission: semaphore.NewWeighted(maxConcurrent),
	}
}

// Accept runs the login task for a freshly accepted connection. It blocks
// on the admission semaphore if the server is already running the maximum
// number of concurrent logins, then blocks again on the bounded hand-off
// channel if the pulse loop hasn't drained it — both are intentional
// backpressure.
func (p *Pipeline) Accept(ctx context.Context, conn net.Conn) {
	if err := p.admission.Acquire(ctx, 1); err != nil {
		conn.Close()
		return
	}
	defer p.admission.Release(1)

	if err := p.run(ctx, conn); err != nil {
		p.Log.Warn("login failed", "remote", conn.RemoteAddr(), "err", err)
	}
}

type session struct {
	conn    net.Conn
	reader  *bufio.Reader
	decoder *telnet.Decoder
	writer  *telnet.Writer
}

func (p *Pipeline) run(ctx context.Context, conn net.Conn) error {
	s := &session{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		decoder: telnet.NewDecoder(),
		writer:  telnet.NewWriter(),
	}

	name, err := s.prompt("What is your name? ")
	if err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		s.writeLine("No name given, bye!")
		conn.Close()
		return nil
	}

	rec, err := p.Records.Load(name)
	switch {
	case errors.Is(err, record.ErrNotFound):
		rec, err = s.createCharacter(name)
		if err != nil {
			return err
		}
	case err != nil:
		s.writeLine("Your character couldn't be loaded.")
		conn.Close()
		return fmt.Errorf("load record for %s: %w", name, err)
	default:
		if err := s.authenticateExisting(rec); err != nil {
			conn.Close()
			return err
		}
	}

	select {
	case p.Out <- Handoff{Conn: conn, PlayerName: name, Record: rec}:
		return nil
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}
}

func (s *session) authenticateExisting(rec record.Record) error {
	password, err := s.prompt("Password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.Password), []byte(password)) != nil {
		s.writeLine("Wrong password, bye!")
		return fmt.Errorf("wrong password for %s", rec.Name)
	}
	return nil
}

func (s *session) createCharacter(name string) (record.Record, error) {
	var rec record.Record

	password, err := s.prompt("Password: ")
	if err != nil {
		return rec, fmt.Errorf("read new password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.writeLine("Your character couldn't be created.")
		return rec, fmt.Errorf("hash password: %w", err)
	}

	for {
		confirm, err := s.prompt("Confirm password: ")
		if err != nil {
			return rec, fmt.Errorf("read password confirmation: %w", err)
		}
		if bcrypt.CompareHashAndPassword(hash, []byte(confirm)) == nil {
			break
		}
		s.writeLine("Passwords don't match.")
	}

	var pronoun world.Pronoun
	for {
		answer, err := s.prompt("How do we refer to you (it/he/she/they)? ")
		if err != nil {
			return rec, fmt.Errorf("read pronoun: %w", err)
		}
		p, ok := world.ParsePronoun(strings.TrimSpace(answer))
		if ok {
			pronoun = p
			break
		}
		s.writeLine("That's not an option we know.")
	}

	rec = record.Record{
		Name:     name,
		Password: string(hash),
		Character: record.Character{
			Keywords:   []string{strings.ToLower(name)},
			FormalName: name,
			Pronoun:    pronoun.String(),
			InRoom:     int(world.StartingRoom),
		},
	}
	return rec, nil
}

// prompt writes msg followed by the telnet GO-AHEAD and reads one line of
// telnet-decoded input.
func (s *session) prompt(msg string) (string, error) {
	if _, err := s.conn.Write(append([]byte(msg), telnet.GoAhead()...)); err != nil {
		return "", err
	}
	return s.readLine()
}

func (s *session) writeLine(msg string) {
	s.conn.Write([]byte(msg + "\r\n"))
}

// readLine blocks until a full Data event is decoded, filtering out
// negotiation noise a client may send unprompted.
func (s *session) readLine() (string, error) {
	buf := make([]byte, 512)
	for {
		n, err := s.reader.Read(buf)
		if n == 0 && err != nil {
			return "", err
		}
		for _, ev := range s.decoder.Feed(buf[:n]) {
			if ev.Kind == telnet.Data {
				return strings.TrimRight(string(ev.Line), "\r\n"), nil
			}
		}
	}
}
