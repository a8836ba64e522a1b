package stage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"cogentcore.org/core/math32"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arzone/lib/config"
	"arzone/lib/logging"
	"arzone/lib/qlab"
	"arzone/lib/scene"
	"arzone/lib/switchboard"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.AssetsDir = t.TempDir()
	for i := 1; i <= 4; i++ {
		n := strconv.Itoa(i)
		cfg.Zones = append(cfg.Zones, config.Zone{
			Name:             "Zone - " + n,
			Model:            "Z" + n + ".glb",
			Video:            "v_" + n + ".mp4",
			AspectRatio:      1,
			AnimationSeconds: 2,
			Cue:              "V" + n,
		})
	}
	require.NoError(t, cfg.Validate())
	return &cfg
}

func startStage(t *testing.T, cfg *config.Config, tracking <-chan switchboard.Event) *Stage {
	t.Helper()
	st, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		st.Run(ctx, tracking)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		st.Close()
	})
	return st
}

func eventually(t *testing.T, st *Stage, cond func(scene.Snapshot) bool) scene.Snapshot {
	t.Helper()
	var snap scene.Snapshot
	require.Eventually(t, func() bool {
		snap = st.Snapshot()
		return cond(snap)
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func TestNewActivatesDefaultZone(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultZone = 2

	st, err := New(cfg, nil)
	require.NoError(t, err)
	defer st.Close()

	snap := st.Snapshot()
	assert.Equal(t, 2, snap.ActiveZone)
	assert.False(t, snap.TargetVisible)
	require.Len(t, snap.Zones, 4)
	for i, z := range snap.Zones {
		assert.False(t, z.Visible, "zone %d", i)
		if i == 2 {
			assert.Equal(t, scene.Playing, z.Video)
		} else {
			assert.Equal(t, scene.Stopped, z.Video)
		}
	}
	assert.Equal(t, "/assets/Z1.glb", snap.Zones[0].ModelURL)
	assert.Equal(t, "/assets/v_4.mp4", snap.Zones[3].VideoURL)
	assert.Equal(t, []string{"Zone - 1", "Zone - 2", "Zone - 3", "Zone - 4"}, st.Names())
}

func TestTrackingPlacesActiveModel(t *testing.T) {
	tracking := make(chan switchboard.Event)
	st := startStage(t, testConfig(t), tracking)

	tracking <- switchboard.TargetFound{
		Name: config.DefaultTargetName,
		Pose: switchboard.Pose{
			Position: math32.Vec3(1, 2, 3),
			Rotation: math32.NewQuat(0, 0, 0, 1),
			Scale:    0.5,
		},
	}
	snap := eventually(t, st, func(s scene.Snapshot) bool { return s.TargetVisible })

	z := snap.Zones[0]
	assert.True(t, z.Visible)
	assert.Equal(t, [3]float32{1, 2, 3}, z.Position)
	assert.Equal(t, [3]float32{5, 5, 5}, z.Scale)
	// A quarter turn about X from the default rotation correction.
	assert.InDelta(t, math32.Sqrt(0.5), z.Rotation[0], 1e-5)
	assert.InDelta(t, math32.Sqrt(0.5), z.Rotation[3], 1e-5)

	tracking <- switchboard.TargetLost{Name: config.DefaultTargetName}
	snap = eventually(t, st, func(s scene.Snapshot) bool { return !s.TargetVisible })
	assert.False(t, snap.Zones[0].Visible)
}

func TestTickAdvancesAnimation(t *testing.T) {
	st := startStage(t, testConfig(t), nil)
	eventually(t, st, func(s scene.Snapshot) bool { return s.Zones[0].AnimationTime > 0 })
	assert.Zero(t, st.Snapshot().Zones[1].AnimationTime)
}

func TestIndicators(t *testing.T) {
	st, err := New(testConfig(t), nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var shown []int
	st.AddIndicator("test", func(active int) error {
		mu.Lock()
		defer mu.Unlock()
		shown = append(shown, active)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		st.Run(ctx, nil)
	}()
	defer func() {
		cancel()
		<-done
	}()

	st.Inputs() <- switchboard.Advance{}
	st.Inputs() <- switchboard.Select{Index: 1}
	st.Inputs() <- switchboard.Select{Index: 3}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(shown) == 3
	}, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	// Re-selecting the active zone does not refresh indicators.
	assert.Equal(t, []int{0, 1, 3}, shown)
}

func post(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHTTPAPI(t *testing.T) {
	st := startStage(t, testConfig(t), nil)
	srv := httptest.NewServer(st.Handler())
	defer srv.Close()

	status, body := post(t, srv.URL+"/api/advance")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["activeZone"])

	status, body = post(t, srv.URL+"/api/zones/3")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["activeZone"])

	status, body = post(t, srv.URL+"/api/zones/4")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body["error"], "out of range")

	status, _ = post(t, srv.URL+"/api/zones/first")
	assert.Equal(t, http.StatusBadRequest, status)

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	var snap scene.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 3, snap.ActiveZone)
	assert.Equal(t, scene.Playing, snap.Zones[3].Video)
	assert.Equal(t, scene.Stopped, snap.Zones[1].Video)
	assert.EqualValues(t, 1, snap.Zones[1].VideoGeneration)
}

func TestReselectRestartsAnimation(t *testing.T) {
	st := startStage(t, testConfig(t), nil)
	srv := httptest.NewServer(st.Handler())
	defer srv.Close()

	before := eventually(t, st, func(s scene.Snapshot) bool { return s.Zones[0].AnimationTime > 0 }).Zones[0]

	status, body := post(t, srv.URL+"/api/zones/0")
	require.Equal(t, http.StatusOK, status)
	zones := body["zones"].([]any)
	zone := zones[0].(map[string]any)
	assert.EqualValues(t, before.AnimationGeneration+1, zone["animationGeneration"])
	assert.EqualValues(t, before.VideoGeneration+1, zone["videoGeneration"])
}

func TestHTTPStatic(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.AssetsDir, "Z1.glb"), []byte("glTF"), 0o644))
	st, err := New(cfg, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(st.Handler())
	defer srv.Close()

	for path, want := range map[string]string{
		"/":              "viewer.js",
		"/viewer.js":     "GLTFLoader",
		"/assets/Z1.glb": "glTF",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		buf, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(buf), want, path)
	}
}

func TestWebSocketPush(t *testing.T) {
	st := startStage(t, testConfig(t), nil)
	srv := httptest.NewServer(st.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() scene.Snapshot {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var snap scene.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		return snap
	}

	assert.Equal(t, 0, read().ActiveZone)
	require.Eventually(t, func() bool { return st.hub.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	status, _ := post(t, srv.URL+"/api/advance")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, read().ActiveZone)
}

func TestWebSocketWriteFailureDropsViewer(t *testing.T) {
	st := startStage(t, testConfig(t), nil)
	st.hub.writeTimeout = -time.Second
	srv := httptest.NewServer(st.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The viewer never writes, so only the server closing the socket ends
	// this read before the deadline.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "server kept the connection open: %v", err)
	}
	require.Eventually(t, func() bool { return st.hub.count() == 0 }, 2*time.Second, 5*time.Millisecond)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func qlabShow(t *testing.T) (*qlab.MockServer, *config.Config) {
	t.Helper()
	mock, err := qlab.NewMockServer()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	mock.Workspaces = []qlab.Workspace{{DisplayName: "Show", UniqueID: "ws-1"}}
	mock.CueLists["ws-1"] = []qlab.Cue{{
		UniqueID: "list-1",
		Type:     "Cue List",
		Cues: []qlab.Cue{
			{UniqueID: "video-1", Number: "V1", Type: "Video"},
			{UniqueID: "video-2", Number: "V2", Type: "Video"},
			{UniqueID: "video-3", Number: "V3", Type: "Video"},
			{UniqueID: "video-4", Number: "V4", Type: "Video"},
		},
	}}

	cfg := testConfig(t)
	cfg.Video.Backend = config.BackendQLab
	cfg.Video.QLabHost = "127.0.0.1"
	cfg.Video.QLabPort = mock.Port()
	return mock, cfg
}

func TestQLabBackend(t *testing.T) {
	mock, cfg := qlabShow(t)

	st, err := New(cfg, nil)
	require.NoError(t, err)
	defer st.Close()

	received := mock.Received()
	require.NotEmpty(t, received)
	assert.Equal(t, "/version", received[0])

	require.NoError(t, st.apply(switchboard.Advance{}))

	want := []string{
		"/workspace/ws-1/cue_id/video-1/start",
		"/workspace/ws-1/cue_id/video-1/stop",
		"/workspace/ws-1/cue_id/video-1/load",
		"/workspace/ws-1/cue_id/video-2/start",
	}
	require.Eventually(t, func() bool {
		got := mock.Received()
		i := slices.Index(got, want[0])
		return i >= 0 && len(got) >= i+len(want) && slices.Equal(got[i:i+len(want)], want)
	}, 2*time.Second, 5*time.Millisecond, "received %v", mock.Received())
	assert.Contains(t, mock.Received(), "/workspace/ws-1/updates")

	assert.Empty(t, st.Snapshot().Zones[0].Video)
}

func TestQLabUpdatesAndDisconnectLogged(t *testing.T) {
	mock, cfg := qlabShow(t)
	var out syncBuffer
	log, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &out})
	require.NoError(t, err)

	st, err := New(cfg, log)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		st.Run(ctx, nil)
	}()
	defer func() {
		cancel()
		<-done
		st.Close()
	}()

	require.Eventually(t, func() bool {
		return slices.Contains(mock.Received(), "/workspace/ws-1/updates")
	}, 2*time.Second, 5*time.Millisecond)
	mock.SendUpdate("/update/workspace/ws-1/cue_id/video-2")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "/update/workspace/ws-1/cue_id/video-2")
	}, 2*time.Second, 5*time.Millisecond)

	mock.Close()
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "qlab connection lost")
	}, 2*time.Second, 5*time.Millisecond)

	// The loop keeps serving the other inputs.
	require.NoError(t, st.Submit(ctx, switchboard.Advance{}))
	eventually(t, st, func(s scene.Snapshot) bool { return s.ActiveZone == 1 })
}

func TestQLabMissingCue(t *testing.T) {
	mock, err := qlab.NewMockServer()
	require.NoError(t, err)
	defer mock.Close()
	mock.Workspaces = []qlab.Workspace{{DisplayName: "Show", UniqueID: "ws-1"}}

	cfg := testConfig(t)
	cfg.Video.Backend = config.BackendQLab
	cfg.Video.QLabHost = "127.0.0.1"
	cfg.Video.QLabPort = mock.Port()

	_, err = New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cue V1 not found")
}

func TestConfigurationErrorSurfaces(t *testing.T) {
	cfg := testConfig(t)
	cfg.Zones[1].AspectRatio = 0

	_, err := New(cfg, nil)
	require.ErrorIs(t, err, switchboard.ErrConfiguration)
}
