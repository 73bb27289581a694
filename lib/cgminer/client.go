// Package cgminer implements the CGMiner API protocol spoken by Avalon
// appliances: a JSON command over a raw TCP connection to port 4028, with a
// JSON reply terminated by a NUL byte.
package cgminer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultPort is the CGMiner API port.
	DefaultPort = 4028
	// DefaultTimeout bounds a single command round trip.
	DefaultTimeout = 10 * time.Second

	readBufSize = 4096
)

// Reply errors.
var (
	ErrNoResponse    = errors.New("no response from device")
	ErrCommandFailed = errors.New("device rejected command")
)

// Client is a CGMiner API client for one device. The zero values of Port
// and Timeout fall back to the defaults. Each command opens a fresh
// connection, matching how the firmware expects to be driven.
type Client struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// NewClient builds a client for a host with the default port and timeout.
func NewClient(host string, port int, timeout time.Duration) *Client {
	if port <= 0 {
		port = DefaultPort
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{Host: host, Port: port, Timeout: timeout}
}

// request is the JSON payload CGMiner expects.
type request struct {
	Command   string `json:"command"`
	Parameter string `json:"parameter,omitempty"`
}

// StatusEntry is one element of a reply's STATUS section.
type StatusEntry struct {
	Status      string `json:"STATUS"` // "S" success, "E" error, "W" warning
	When        int64  `json:"When"`
	Code        int    `json:"Code"`
	Msg         string `json:"Msg"`
	Description string `json:"Description"`
}

// Reply is the generic CGMiner reply envelope. Section payloads stay raw
// until a typed accessor decodes them.
type Reply struct {
	Status   []StatusEntry              `json:"STATUS"`
	sections map[string]json.RawMessage // remaining reply sections by key
	raw      []byte
}

// Raw returns the reply bytes as received, without the NUL terminator.
func (r *Reply) Raw() []byte {
	return r.raw
}

// Section decodes a named reply section into out.
func (r *Reply) Section(name string, out any) error {
	payload, ok := r.sections[name]
	if !ok {
		return fmt.Errorf("%w: reply has no %s section", ErrNoResponse, name)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decoding %s section: %w", name, err)
	}

	return nil
}

// Succeeded reports whether the reply's first status entry is a success,
// returning its message either way.
func (r *Reply) Succeeded() (bool, string) {
	if len(r.Status) == 0 {
		return false, "missing status"
	}

	return r.Status[0].Status == "S", r.Status[0].Msg
}

// Command sends a command with an optional parameter and decodes the reply.
func (c *Client) Command(ctx context.Context, command, parameter string) (*Reply, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	port := c.Port
	if port <= 0 {
		port = DefaultPort
	}

	dialer := net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(port))

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close() //nolint:errcheck // Connection is discarded either way

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("setting deadline: %w", err)
	}

	payload, err := json.Marshal(request{Command: command, Parameter: parameter})
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("sending command to %s: %w", addr, err)
	}

	raw, err := readReply(conn)
	if err != nil {
		return nil, fmt.Errorf("reading reply from %s: %w", addr, err)
	}

	return parseReply(raw)
}

// readReply drains the connection until the NUL terminator or EOF.
func readReply(conn net.Conn) ([]byte, error) {
	var data []byte
	buf := make([]byte, readBufSize)

	for {
		n, err := conn.Read(buf)
		data = append(data, buf[:n]...)

		if bytes.IndexByte(data, 0) >= 0 {
			break
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, err
		}
	}

	data = bytes.TrimRight(data, "\x00")
	if len(data) == 0 {
		return nil, ErrNoResponse
	}

	return data, nil
}

// parseReply splits the envelope into the STATUS section and the remaining
// raw sections.
func parseReply(raw []byte) (*Reply, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("decoding reply: %w", err)
	}

	reply := &Reply{sections: sections, raw: raw}

	if payload, ok := sections["STATUS"]; ok {
		if err := json.Unmarshal(payload, &reply.Status); err != nil {
			return nil, fmt.Errorf("decoding STATUS section: %w", err)
		}
		delete(sections, "STATUS")
	}

	return reply, nil
}

// AscSet sends an ascset command, the firmware's device-settings channel.
func (c *Client) AscSet(ctx context.Context, parameter string) (*Reply, error) {
	return c.Command(ctx, "ascset", parameter)
}
