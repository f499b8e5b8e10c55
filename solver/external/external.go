// Package external bridges to a legacy 0install solver process over
// its length-prefixed JSON-RPC stdio protocol: "0x" and an
// 8-hex-digit byte count, a newline, then the UTF-8 JSON message
// itself.
package external

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// APIVersion is the protocol version this bridge implements.
const APIVersion = "2.7"

// Callbacks lets the parent answer the child's interactive requests.
type Callbacks interface {
	Confirm(message string) (string, error)
	ConfirmKeys(feedUri string, keys map[string][][]string) (string, error)
	UpdateKeyInfo(args []json.RawMessage) error
}

// Bridge manages one external solver subprocess: it drains stderr,
// performs the set-api-version handshake, and routes request/response
// pairs by ticket so Select calls can be issued concurrently.
type Bridge struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	callbacks Callbacks

	mu      sync.Mutex
	writeMu sync.Mutex
	pending map[string]chan json.RawMessage
}

// Start launches the solver binary at path and performs the
// set-api-version handshake.
func Start(path string, args []string, callbacks Callbacks) (*Bridge, error) {
	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("external: creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("external: creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("external: creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("external: starting %s: %w", path, err)
	}

	b := &Bridge{
		cmd:       cmd,
		stdin:     stdin,
		stdout:    bufio.NewReader(stdout),
		callbacks: callbacks,
		pending:   map[string]chan json.RawMessage{},
	}

	go drainStderr(stderr)
	go b.readLoop()

	if err := b.handshake(); err != nil {
		return nil, err
	}
	return b, nil
}

func drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// The legacy solver's diagnostics are not ours to parse; we
		// simply drain the pipe so the child never blocks on a full
		// stderr buffer.
		_ = scanner.Text()
	}
}

// Every message on the wire is either [type, ticket, operation, args]
// for an "invoke", or [type, ticket, result] for a "return" (spec
// §5).

func (b *Bridge) handshake() error {
	raw, err := b.readMessage()
	if err != nil {
		return fmt.Errorf("external: reading handshake: %w", err)
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) < 4 {
		return fmt.Errorf("external: malformed handshake message")
	}

	var msgType string
	if err := json.Unmarshal(parts[0], &msgType); err != nil || msgType != "invoke" {
		return fmt.Errorf("external: expected invoke handshake, got %s", parts[0])
	}

	var method string
	if err := json.Unmarshal(parts[2], &method); err != nil || method != "set-api-version" {
		return fmt.Errorf("external: expected set-api-version handshake, got %s", parts[2])
	}

	var args []json.RawMessage
	if err := json.Unmarshal(parts[3], &args); err != nil || len(args) == 0 {
		return fmt.Errorf("external: malformed set-api-version args")
	}
	var versions []string
	if err := json.Unmarshal(args[0], &versions); err != nil || len(versions) == 0 {
		return fmt.Errorf("external: malformed set-api-version version list")
	}
	if !versionAtMost(APIVersion, versions[0]) {
		return fmt.Errorf("external: incompatible solver API version %s (parent requires at least %s)", versions[0], APIVersion)
	}

	return b.writeReturn(parts[1], []interface{}{"ok"})
}

func (b *Bridge) writeReturn(ticket json.RawMessage, result interface{}) error {
	return b.writeMessage([]interface{}{"return", ticket, result})
}

func (b *Bridge) writeInvoke(ticket string, operation string, args interface{}) error {
	return b.writeMessage([]interface{}{"invoke", ticket, operation, args})
}

// versionAtMost reports whether parent <= child, compared as
// dotted-integer tuples (the external protocol's own, simpler version
// scheme — unrelated to the feed version grammar in package version).
func versionAtMost(parent, child string) bool {
	p, c := splitDotted(parent), splitDotted(child)
	for i := 0; i < len(p) || i < len(c); i++ {
		var pv, cv int
		if i < len(p) {
			pv = p[i]
		}
		if i < len(c) {
			cv = c[i]
		}
		if pv != cv {
			return pv <= cv
		}
	}
	return true
}

func splitDotted(s string) []int {
	var out []int
	cur := 0
	has := false
	for _, r := range s {
		if r >= '0' && r <= '9' {
			cur = cur*10 + int(r-'0')
			has = true
		} else {
			if has {
				out = append(out, cur)
			}
			cur, has = 0, false
		}
	}
	if has {
		out = append(out, cur)
	}
	return out
}

// SelectResult is the child's response to a select call.
type SelectResult struct {
	Stale      bool
	Selections string // raw "<xml selections>" document
}

// Select issues a select(requirementsJSON, refresh) call and blocks
// for the child's response, servicing any confirm/confirm-keys/
// update-key-info callbacks the child issues in the meantime.
func (b *Bridge) Select(requirementsJSON json.RawMessage, refresh bool) (*SelectResult, error) {
	ticket := uuid.NewString()
	ch := make(chan json.RawMessage, 1)

	b.mu.Lock()
	b.pending[ticket] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, ticket)
		b.mu.Unlock()
	}()

	if err := b.writeInvoke(ticket, "select", []interface{}{requirementsJSON, refresh}); err != nil {
		return nil, err
	}

	result := <-ch
	var reply []json.RawMessage
	if err := json.Unmarshal(result, &reply); err != nil || len(reply) < 1 {
		return nil, fmt.Errorf("external: malformed select reply")
	}
	var status string
	if err := json.Unmarshal(reply[0], &status); err != nil {
		return nil, fmt.Errorf("external: parsing select reply status: %w", err)
	}

	switch status {
	case "ok":
		if len(reply) < 3 {
			return nil, fmt.Errorf("external: malformed ok reply")
		}
		var meta struct {
			Stale bool `json:"stale"`
		}
		if err := json.Unmarshal(reply[1], &meta); err != nil {
			return nil, fmt.Errorf("external: parsing select metadata: %w", err)
		}
		var xmlSelections string
		if err := json.Unmarshal(reply[2], &xmlSelections); err != nil {
			return nil, fmt.Errorf("external: parsing select payload: %w", err)
		}
		return &SelectResult{Stale: meta.Stale, Selections: xmlSelections}, nil
	case "fail":
		var message string
		if len(reply) > 1 {
			_ = json.Unmarshal(reply[1], &message)
		}
		return nil, fmt.Errorf("external: solver reported failure: %s", message)
	default:
		return nil, fmt.Errorf("external: unexpected select status %q", status)
	}
}

// readLoop demultiplexes incoming framed messages: "return" frames
// matching a pending ticket are delivered to their channel; "invoke"
// frames are callbacks routed to b.callbacks.
func (b *Bridge) readLoop() {
	for {
		data, err := b.readMessage()
		if err != nil {
			return
		}

		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil || len(parts) < 3 {
			continue
		}

		var msgType string
		if err := json.Unmarshal(parts[0], &msgType); err != nil {
			continue
		}

		switch msgType {
		case "return":
			var ticket string
			if err := json.Unmarshal(parts[1], &ticket); err != nil {
				continue
			}
			b.mu.Lock()
			ch, ok := b.pending[ticket]
			b.mu.Unlock()
			if ok {
				ch <- parts[2]
			}
		case "invoke":
			go b.dispatchCallback(parts)
		}
	}
}

func (b *Bridge) dispatchCallback(parts []json.RawMessage) {
	if len(parts) < 4 {
		return
	}
	ticket := parts[1]

	var method string
	if err := json.Unmarshal(parts[2], &method); err != nil {
		return
	}
	var args []json.RawMessage
	_ = json.Unmarshal(parts[3], &args)

	switch method {
	case "confirm":
		var message string
		if len(args) > 0 {
			_ = json.Unmarshal(args[0], &message)
		}
		result, err := b.callbacks.Confirm(message)
		if err != nil {
			result = "cancel"
		}
		_ = b.writeReturn(ticket, result)
	case "confirm-keys":
		var feedUri string
		var keys map[string][][]string
		if len(args) > 1 {
			_ = json.Unmarshal(args[0], &feedUri)
			_ = json.Unmarshal(args[1], &keys)
		}
		result, err := b.callbacks.ConfirmKeys(feedUri, keys)
		if err != nil {
			result = "cancel"
		}
		_ = b.writeReturn(ticket, result)
	case "update-key-info":
		_ = b.callbacks.UpdateKeyInfo(args)
		_ = b.writeReturn(ticket, nil)
	}
}

// frameHeaderLen is the length of the "0xHHHHHHHH\n" preamble: "0x",
// eight hex digits, and a trailing newline (spec §5/§6).
const frameHeaderLen = 11

func (b *Bridge) readMessage() (json.RawMessage, error) {
	header := make([]byte, frameHeaderLen)
	if _, err := io.ReadFull(b.stdout, header); err != nil {
		return nil, err
	}
	if header[0] != '0' || header[1] != 'x' || header[10] != '\n' {
		return nil, fmt.Errorf("external: malformed frame preamble %q", header)
	}
	length, err := strconv.ParseInt(string(header[2:10]), 16, 64)
	if err != nil {
		return nil, fmt.Errorf("external: malformed length prefix %q: %w", header[2:10], err)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(b.stdout, body); err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (b *Bridge) writeMessage(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("external: marshaling message: %w", err)
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if _, err := fmt.Fprintf(b.stdin, "0x%08x\n", len(data)); err != nil {
		return fmt.Errorf("external: writing length prefix: %w", err)
	}
	if _, err := b.stdin.Write(data); err != nil {
		return fmt.Errorf("external: writing message body: %w", err)
	}
	return nil
}

// Close terminates the subprocess.
func (b *Bridge) Close() error {
	_ = b.stdin.Close()
	return b.cmd.Wait()
}
