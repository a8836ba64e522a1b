package qlab

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"arzone/lib/osc"
)

const DefaultPort = 53000

type Workspace struct {
	DisplayName string `json:"displayName"`
	UniqueID    string `json:"uniqueID"`
	HasPasscode bool   `json:"hasPasscode"`
}

type Cue struct {
	UniqueID  string `json:"uniqueID"`
	Number    string `json:"number"`
	Name      string `json:"name"`
	ListName  string `json:"listName"`
	Type      string `json:"type"`
	ColorName string `json:"colorName"`
	Flagged   bool   `json:"flagged"`
	Armed     bool   `json:"armed"`
	Cues      []Cue  `json:"cues"`
}

type Reply struct {
	WorkspaceID string          `json:"workspace_id"`
	Address     string          `json:"address"`
	Status      string          `json:"status"`
	Data        json.RawMessage `json:"data"`
}

type Update struct {
	Address string
}

type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	pending map[string]chan *Reply
	updates chan Update
}

func Dial(host string, port int) (*Client, error) {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), 5*time.Second)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:    conn,
		pending: make(map[string]chan *Reply),
		updates: make(chan Update, 64),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Updates() <-chan Update {
	return c.updates
}

func (c *Client) readLoop() {
	osc.ReadFrames(c.conn, nil, c.handleFrame)
	close(c.updates)
}

func (c *Client) handleFrame(frame []byte) {
	addr, args, err := osc.Parse(frame)
	if err != nil {
		return
	}

	if strings.HasPrefix(addr, "/update/") {
		c.handleUpdate(addr)
		return
	}

	if strings.HasPrefix(addr, "/reply/") {
		if len(args) == 0 {
			return
		}
		jsonStr, ok := args[0].(string)
		if !ok {
			return
		}
		var reply Reply
		if err := json.Unmarshal([]byte(jsonStr), &reply); err != nil {
			return
		}
		replyAddr := addr[6:]
		c.mu.Lock()
		ch, exists := c.pending[replyAddr]
		if exists {
			delete(c.pending, replyAddr)
		}
		c.mu.Unlock()
		if exists {
			ch <- &reply
		}
	}
}

func (c *Client) handleUpdate(addr string) {
	select {
	case c.updates <- Update{Address: addr}:
	default:
	}
}

func (c *Client) send(addr string, args ...any) error {
	encoded := osc.Message(addr, args...)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.conn.Write(encoded)
	return err
}

func (c *Client) sendAndWait(addr string, timeout time.Duration, args ...any) (*Reply, error) {
	ch := make(chan *Reply, 1)
	c.mu.Lock()
	c.pending[addr] = ch
	c.mu.Unlock()

	if err := c.send(addr, args...); err != nil {
		c.mu.Lock()
		delete(c.pending, addr)
		c.mu.Unlock()
		return nil, err
	}

	select {
	case reply := <-ch:
		if reply.Status != "ok" {
			return reply, fmt.Errorf("qlab: %s: %s", addr, reply.Status)
		}
		return reply, nil
	case <-time.After(timeout):
		c.mu.Lock()
		delete(c.pending, addr)
		c.mu.Unlock()
		return nil, fmt.Errorf("qlab: %s: timeout", addr)
	}
}

func (c *Client) request(addr string, args ...any) (*Reply, error) {
	return c.sendAndWait(addr, 5*time.Second, args...)
}

func (c *Client) Version() (string, error) {
	reply, err := c.request("/version")
	if err != nil {
		return "", err
	}
	var v string
	if err := json.Unmarshal(reply.Data, &v); err != nil {
		return "", err
	}
	return v, nil
}

func (c *Client) Workspaces() ([]Workspace, error) {
	reply, err := c.request("/workspaces")
	if err != nil {
		return nil, err
	}
	var ws []Workspace
	if err := json.Unmarshal(reply.Data, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (c *Client) Connect(workspaceID string, passcode string) error {
	addr := fmt.Sprintf("/workspace/%s/connect", workspaceID)
	if passcode != "" {
		_, err := c.request(addr, passcode)
		return err
	}
	_, err := c.request(addr)
	return err
}

// Subscribe asks QLab to push /update messages for the workspace. They
// arrive on Updates.
func (c *Client) Subscribe(workspaceID string) error {
	return c.send(fmt.Sprintf("/workspace/%s/updates", workspaceID), int32(1))
}

func (c *Client) CueLists(workspaceID string) ([]Cue, error) {
	addr := fmt.Sprintf("/workspace/%s/cueLists", workspaceID)
	reply, err := c.request(addr)
	if err != nil {
		return nil, err
	}
	var cues []Cue
	if err := json.Unmarshal(reply.Data, &cues); err != nil {
		return nil, err
	}
	return cues, nil
}

func (c *Client) CueStart(workspaceID string, cueID string) error {
	return c.send(fmt.Sprintf("/workspace/%s/cue_id/%s/start", workspaceID, cueID))
}

func (c *Client) CueStop(workspaceID string, cueID string) error {
	return c.send(fmt.Sprintf("/workspace/%s/cue_id/%s/stop", workspaceID, cueID))
}

func (c *Client) CuePause(workspaceID string, cueID string) error {
	return c.send(fmt.Sprintf("/workspace/%s/cue_id/%s/pause", workspaceID, cueID))
}

func (c *Client) CueResume(workspaceID string, cueID string) error {
	return c.send(fmt.Sprintf("/workspace/%s/cue_id/%s/resume", workspaceID, cueID))
}

func (c *Client) CueLoad(workspaceID string, cueID string) error {
	return c.send(fmt.Sprintf("/workspace/%s/cue_id/%s/load", workspaceID, cueID))
}
