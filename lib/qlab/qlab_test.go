package qlab

import (
	"testing"
	"time"
)

func setupTest(t *testing.T) (*MockServer, *Client) {
	t.Helper()
	mock, err := NewMockServer()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mock.Close() })

	client, err := Dial("127.0.0.1", mock.Port())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })

	return mock, client
}

func TestVersion(t *testing.T) {
	mock, client := setupTest(t)
	mock.Version = "5.2.3"

	v, err := client.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v != "5.2.3" {
		t.Errorf("got %q, want %q", v, "5.2.3")
	}
}

func TestConnect(t *testing.T) {
	_, client := setupTest(t)

	if err := client.Connect("ws-1", ""); err != nil {
		t.Fatal(err)
	}
}

func TestCueLists(t *testing.T) {
	mock, client := setupTest(t)
	mock.CueLists["ws-1"] = videoCues()

	lists, err := client.CueLists("ws-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(lists) != 1 || len(lists[0].Cues) != 2 {
		t.Fatalf("got %+v, want one list of two cues", lists)
	}
	cue, ok := FindCue(lists, "V2")
	if !ok {
		t.Fatal("cue V2 not found")
	}
	if cue.UniqueID != "video-2" {
		t.Errorf("got %q, want %q", cue.UniqueID, "video-2")
	}
	if _, ok := FindCue(lists, "V9"); ok {
		t.Error("found nonexistent cue V9")
	}
}

func TestFindCueNested(t *testing.T) {
	lists := []Cue{{
		UniqueID: "list-1",
		Type:     "Cue List",
		Cues: []Cue{{
			UniqueID: "group-1",
			Number:   "10",
			Type:     "Group",
			Cues:     []Cue{{UniqueID: "nested-1", Number: "10.1", Name: "Zone - 3", Type: "Video"}},
		}},
	}}
	cue, ok := FindCue(lists, "10.1")
	if !ok || cue.UniqueID != "nested-1" {
		t.Errorf("got %+v %v, want nested-1", cue, ok)
	}
}

func TestUpdates(t *testing.T) {
	mock, client := setupTest(t)

	// Ensure connection is fully established
	_, err := client.Version()
	if err != nil {
		t.Fatal(err)
	}

	mock.SendUpdate("/update/workspace/ws-1/cue_id/cue-1")

	select {
	case u := <-client.Updates():
		if u.Address != "/update/workspace/ws-1/cue_id/cue-1" {
			t.Errorf("got %q, want %q", u.Address, "/update/workspace/ws-1/cue_id/cue-1")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for update")
	}
}

func TestSubscribe(t *testing.T) {
	mock, client := setupTest(t)

	if err := client.Subscribe("ws-1"); err != nil {
		t.Fatal(err)
	}
	got := waitReceived(t, mock, 1)
	if got[0] != "/workspace/ws-1/updates" {
		t.Errorf("got %q, want %q", got[0], "/workspace/ws-1/updates")
	}
}

func TestUpdatesClosedOnDisconnect(t *testing.T) {
	mock, client := setupTest(t)
	if _, err := client.Version(); err != nil {
		t.Fatal(err)
	}

	mock.Close()

	select {
	case _, ok := <-client.Updates():
		if ok {
			t.Fatal("got update, want closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("updates not closed after disconnect")
	}
}

func TestWorkspaces(t *testing.T) {
	mock, client := setupTest(t)
	mock.Workspaces = []Workspace{
		{DisplayName: "AR Zones", UniqueID: "ws-1"},
		{DisplayName: "Backup", UniqueID: "ws-2", HasPasscode: true},
	}

	ws, err := client.Workspaces()
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 2 {
		t.Fatalf("got %d workspaces, want 2", len(ws))
	}
	if ws[0].UniqueID != "ws-1" {
		t.Errorf("got %q, want %q", ws[0].UniqueID, "ws-1")
	}
	if !ws[1].HasPasscode {
		t.Error("expected HasPasscode to be true")
	}
}

func TestCueTransport(t *testing.T) {
	mock, client := setupTest(t)
	mock.CueLists["ws-1"] = videoCues()

	for _, fn := range []func(string, string) error{
		client.CueStart,
		client.CuePause,
		client.CueResume,
		client.CueStop,
		client.CueLoad,
	} {
		if err := fn("ws-1", "video-1"); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"start", "pause", "resume", "stop", "load"}
	got := waitReceived(t, mock, len(want))
	for i, op := range want {
		addr := "/workspace/ws-1/cue_id/video-1/" + op
		if got[i] != addr {
			t.Errorf("got %q, want %q", got[i], addr)
		}
	}
}

func videoCues() []Cue {
	return []Cue{
		{
			UniqueID: "list-1",
			Name:     "Zones",
			Type:     "Cue List",
			Cues: []Cue{
				{UniqueID: "video-1", Number: "V1", Name: "Zone - 1", Type: "Video"},
				{UniqueID: "video-2", Number: "V2", Name: "Zone - 2", Type: "Video"},
			},
		},
	}
}

func waitReceived(t *testing.T, mock *MockServer, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := mock.Received()
		if len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("got %d messages %v, want %d", len(got), got, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

