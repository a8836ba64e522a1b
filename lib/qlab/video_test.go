package qlab

import (
	"testing"

	"arzone/lib/switchboard"
)

var _ switchboard.Video = (*VideoCue)(nil)

func TestVideoCue(t *testing.T) {
	mock, client := setupTest(t)
	mock.CueLists["ws-1"] = videoCues()

	v := NewVideoCue(client, "ws-1", "video-2", nil)
	v.Play()
	v.Pause()
	v.Play()
	v.PauseAndResetToStart()
	v.Play()

	want := []string{"start", "pause", "resume", "stop", "load", "start"}
	got := waitReceived(t, mock, len(want))
	for i, op := range want {
		addr := "/workspace/ws-1/cue_id/video-2/" + op
		if got[i] != addr {
			t.Errorf("message %d: got %q, want %q", i, got[i], addr)
		}
	}
}

func TestVideoCueClosedClient(t *testing.T) {
	_, client := setupTest(t)
	client.Close()

	v := NewVideoCue(client, "ws-1", "video-1", nil)
	v.Play()
	v.PauseAndResetToStart()
}
