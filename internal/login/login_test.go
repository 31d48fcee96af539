package login

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"embermoor/internal/record"
	"embermoor/internal/telnet"
)

func newTestPipeline(t *testing.T) (*Pipeline, *record.Store, chan Handoff) {
	t.Helper()
	store, err := record.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	out := make(chan Handoff, 1)
	p := NewPipeline(store, out, discardLogger(), 4)
	return p, store, out
}

func TestNewLoginCreatesRecordAndHandsOff(t *testing.T) {
	p, _, out := newTestPipeline(t)
	server, client := net.Pipe()
	defer client.Close()

	go p.Accept(context.Background(), server)

	r := bufio.NewReader(client)
	expectPrompt(t, r, "What is your name? ")
	client.Write([]byte("Alice\r\n"))

	expectPrompt(t, r, "Password: ")
	client.Write([]byte("hunter2\r\n"))

	expectPrompt(t, r, "Confirm password: ")
	client.Write([]byte("hunter2\r\n"))

	expectPrompt(t, r, "How do we refer to you (it/he/she/they)? ")
	client.Write([]byte("she\r\n"))

	select {
	case h := <-out:
		if h.PlayerName != "Alice" {
			t.Fatalf("PlayerName = %q", h.PlayerName)
		}
		if h.Record.Character.Pronoun != "She" {
			t.Fatalf("Pronoun = %q", h.Record.Character.Pronoun)
		}
		if h.Record.Character.InRoom != 1 {
			t.Fatalf("InRoom = %d, want 1", h.Record.Character.InRoom)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for hand-off")
	}
}

func TestEmptyNameClosesConnection(t *testing.T) {
	p, _, out := newTestPipeline(t)
	server, client := net.Pipe()
	defer client.Close()

	go p.Accept(context.Background(), server)

	r := bufio.NewReader(client)
	expectPrompt(t, r, "What is your name? ")
	client.Write([]byte("\r\n"))

	line, _ := r.ReadString('\n')
	if !strings.Contains(line, "No name given") {
		t.Fatalf("line = %q", line)
	}
	select {
	case <-out:
		t.Fatalf("should not have handed off an empty-name session")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWrongPasswordClosesConnection(t *testing.T) {
	p, store, out := newTestPipeline(t)
	// seed an existing record so the login takes the "existing" branch.
	hash := mustHash(t, "correct-horse")
	store.Save(record.Record{Name: "Bob", Password: hash, Character: record.Character{FormalName: "Bob", InRoom: 1}})

	server, client := net.Pipe()
	defer client.Close()
	go p.Accept(context.Background(), server)

	r := bufio.NewReader(client)
	expectPrompt(t, r, "What is your name? ")
	client.Write([]byte("Bob\r\n"))
	expectPrompt(t, r, "Password: ")
	client.Write([]byte("wrong\r\n"))

	line, _ := r.ReadString('\n')
	if !strings.Contains(line, "Wrong password") {
		t.Fatalf("line = %q", line)
	}
	select {
	case <-out:
		t.Fatalf("should not have handed off a failed login")
	case <-time.After(100 * time.Millisecond):
	}
}

func expectPrompt(t *testing.T, r *bufio.Reader, want string) {
	t.Helper()
	buf := make([]byte, len(want)+len(telnet.GoAhead()))
	if _, err := readFull(r, buf); err != nil {
		t.Fatalf("read prompt: %v", err)
	}
	if !strings.HasPrefix(string(buf), want) {
		t.Fatalf("prompt = %q, want prefix %q", buf, want)
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
