package qlab

import (
	"encoding/json"
	"net"
	"strings"
	"sync"

	"arzone/lib/osc"
)

type MockServer struct {
	listener net.Listener
	mu       sync.Mutex
	conns    []net.Conn

	received []string

	Version    string
	Workspaces []Workspace
	CueLists   map[string][]Cue
}

func NewMockServer() (*MockServer, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	m := &MockServer{
		listener:   ln,
		Version:    "5.0.0",
		Workspaces: []Workspace{},
		CueLists:   make(map[string][]Cue),
	}
	go m.serve()
	return m, nil
}

func (m *MockServer) Port() int {
	return m.listener.Addr().(*net.TCPAddr).Port
}

func (m *MockServer) Close() error {
	err := m.listener.Close()
	m.mu.Lock()
	for _, conn := range m.conns {
		conn.Close()
	}
	m.mu.Unlock()
	return err
}

func (m *MockServer) SendUpdate(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	encoded := osc.Message(addr)
	for _, conn := range m.conns {
		conn.Write(encoded)
	}
}

func (m *MockServer) serve() {
	for {
		conn, err := m.listener.Accept()
		if err != nil {
			return
		}
		m.mu.Lock()
		m.conns = append(m.conns, conn)
		m.mu.Unlock()
		go m.handleConn(conn)
	}
}

func (m *MockServer) handleConn(conn net.Conn) {
	osc.ReadFrames(conn, nil, func(frame []byte) {
		addr, args, err := osc.Parse(frame)
		if err != nil {
			return
		}
		m.handleRequest(conn, addr, args)
	})
}

// Received returns every address the server has been sent, in order.
func (m *MockServer) Received() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.received...)
}

func (m *MockServer) sendReply(conn net.Conn, addr string, wsID string, status string, data any) {
	jsonData, _ := json.Marshal(data)
	r := Reply{
		WorkspaceID: wsID,
		Address:     addr,
		Status:      status,
		Data:        json.RawMessage(jsonData),
	}
	replyJSON, _ := json.Marshal(r)
	conn.Write(osc.Message("/reply"+addr, string(replyJSON)))
}

func (m *MockServer) handleRequest(conn net.Conn, addr string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, addr)

	switch {
	case addr == "/version":
		m.sendReply(conn, addr, "", "ok", m.Version)
		return
	case addr == "/workspaces":
		m.sendReply(conn, addr, "", "ok", m.Workspaces)
		return
	}

	parts := strings.SplitN(addr, "/", 5)
	if len(parts) < 4 || parts[1] != "workspace" {
		return
	}
	wsID := parts[2]
	rest := strings.Join(parts[3:], "/")

	switch {
	case rest == "connect":
		m.sendReply(conn, addr, wsID, "ok", "ok")
	case rest == "cueLists":
		cues := m.CueLists[wsID]
		if cues == nil {
			cues = []Cue{}
		}
		m.sendReply(conn, addr, wsID, "ok", cues)
	case strings.HasPrefix(rest, "cue_id/"):
		sub := strings.SplitN(rest, "/", 3)
		if len(sub) < 3 {
			return
		}
		if m.findCue(wsID, sub[1]) == nil {
			m.sendReply(conn, addr, wsID, "not found", nil)
			return
		}
		m.sendReply(conn, addr, wsID, "ok", nil)
	default:
		m.sendReply(conn, addr, wsID, "ok", nil)
	}
}

func (m *MockServer) findCue(wsID, cueID string) *Cue {
	return findCueInList(m.CueLists[wsID], cueID)
}

func findCueInList(cues []Cue, id string) *Cue {
	for i := range cues {
		if cues[i].UniqueID == id {
			return &cues[i]
		}
		if found := findCueInList(cues[i].Cues, id); found != nil {
			return found
		}
	}
	return nil
}
