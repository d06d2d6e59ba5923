// Package remotetarget implements target.MemoryTarget over a websocket
// connection to a remote agent process, for inspecting memory on a
// machine other than the one running the shell. A background goroutine
// reads frames off the connection and dispatches each decoded response
// to whichever call is waiting on its request ID, so multiple
// read/write/region calls can be in flight on one connection at once.
package remotetarget

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"memfuzz/internal/target"
)

type request struct {
	ID     uint64 `json:"id"`
	Op     string `json:"op"`
	Addr   uint64 `json:"addr,omitempty"`
	Data   []byte `json:"data,omitempty"`
	Length int    `json:"length,omitempty"`
}

type response struct {
	ID      uint64          `json:"id"`
	Error   string          `json:"error,omitempty"`
	Data    []byte          `json:"data,omitempty"`
	Regions []regionPayload `json:"regions,omitempty"`
	Width   int             `json:"width,omitempty"`
}

type regionPayload struct {
	Start uint64 `json:"start"`
	Size  uint64 `json:"size"`
	Prot  uint8  `json:"prot"`
	Name  string `json:"name"`
}

// Target is a MemoryTarget backed by one long-lived websocket connection
// to a remote memory-access agent, addressed by request ID so that
// concurrent read/write calls on one connection don't cross responses.
type Target struct {
	conn    *websocket.Conn
	nextID  uint64
	mu      sync.Mutex
	pending map[uint64]chan response
	closed  bool
}

// Dial connects to url and starts the background response reader.
func Dial(url string) (*Target, error) {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "remotetarget: dial %s", url)
	}
	t := &Target{conn: conn, pending: make(map[uint64]chan response)}
	go t.readLoop()
	return t, nil
}

// readLoop runs for the lifetime of the connection, decoding each
// inbound frame and handing it to the channel its request ID is waiting
// on.
func (t *Target) readLoop() {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			t.closed = true
			for _, ch := range t.pending {
				close(ch)
			}
			t.pending = nil
			t.mu.Unlock()
			return
		}
		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			continue
		}
		t.mu.Lock()
		ch, ok := t.pending[resp.ID]
		if ok {
			delete(t.pending, resp.ID)
		}
		t.mu.Unlock()
		if ok {
			ch <- resp
			close(ch)
		}
	}
}

func (t *Target) call(req request) (response, error) {
	req.ID = atomic.AddUint64(&t.nextID, 1)

	ch := make(chan response, 1)
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return response{}, fmt.Errorf("remotetarget: connection closed")
	}
	t.pending[req.ID] = ch
	t.mu.Unlock()

	payload, err := json.Marshal(req)
	if err != nil {
		return response{}, err
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return response{}, errors.Wrap(err, "remotetarget: write")
	}

	resp, ok := <-ch
	if !ok {
		return response{}, fmt.Errorf("remotetarget: connection closed awaiting response")
	}
	if resp.Error != "" {
		return response{}, fmt.Errorf("remotetarget: %s", resp.Error)
	}
	return resp, nil
}

func (t *Target) Read(addr target.Address, buf []byte) error {
	resp, err := t.call(request{Op: "read", Addr: uint64(addr), Length: len(buf)})
	if err != nil {
		return err
	}
	if len(resp.Data) != len(buf) {
		return fmt.Errorf("remotetarget: short read at 0x%x: got %d want %d", addr, len(resp.Data), len(buf))
	}
	copy(buf, resp.Data)
	return nil
}

func (t *Target) Write(addr target.Address, buf []byte) error {
	_, err := t.call(request{Op: "write", Addr: uint64(addr), Data: buf})
	return err
}

func (t *Target) Pause() error {
	_, err := t.call(request{Op: "pause"})
	return err
}

func (t *Target) Resume() error {
	_, err := t.call(request{Op: "resume"})
	return err
}

func (t *Target) AddressWidth() int {
	resp, err := t.call(request{Op: "address_width"})
	if err != nil || resp.Width == 0 {
		return 64
	}
	return resp.Width
}

func (t *Target) Regions() ([]target.Region, error) {
	resp, err := t.call(request{Op: "regions"})
	if err != nil {
		return nil, err
	}
	regions := make([]target.Region, len(resp.Regions))
	for i, r := range resp.Regions {
		regions[i] = target.Region{
			Start: target.Address(r.Start),
			Size:  r.Size,
			Prot:  target.Protection(r.Prot),
			Name:  r.Name,
		}
	}
	return regions, nil
}

func (t *Target) Close() error {
	t.mu.Lock()
	already := t.closed
	t.mu.Unlock()
	if already {
		return nil
	}
	t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return t.conn.Close()
}
