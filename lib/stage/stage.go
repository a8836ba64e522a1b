// Package stage runs a switchboard built from config. One goroutine applies
// every tracking and UI event; viewer pages follow the resulting scene.
package stage

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync/atomic"
	"time"

	"cogentcore.org/core/math32"

	"arzone/lib/config"
	"arzone/lib/logging"
	"arzone/lib/qlab"
	"arzone/lib/scene"
	"arzone/lib/switchboard"
)

const FrameInterval = time.Second / 30

type request struct {
	ev   switchboard.Event
	done chan error
}

type indicator struct {
	name string
	show func(active int) error
}

type Stage struct {
	cfg   *config.Config
	log   *slog.Logger
	scene *scene.Scene
	board *switchboard.Switchboard
	names []string
	qlab  *qlab.Client

	inputs     chan switchboard.Event
	requests   chan request
	indicators []indicator

	snap atomic.Pointer[scene.Snapshot]
	hub  *hub
}

// New builds the scene and video backend for cfg and activates the default
// zone. For the qlab backend it connects to QLab and resolves every zone's
// cue before returning.
func New(cfg *config.Config, log *slog.Logger) (*Stage, error) {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Stage{
		cfg:      cfg,
		log:      log,
		scene:    scene.New(),
		inputs:   make(chan switchboard.Event, 64),
		requests: make(chan request),
		hub:      newHub(logging.NewComponentLogger(log, "ws")),
	}

	var cues []switchboard.Video
	if cfg.Video.Backend == config.BackendQLab {
		client, videos, err := dialQLab(cfg, logging.NewComponentLogger(log, "qlab"))
		if err != nil {
			return nil, err
		}
		s.qlab = client
		cues = videos
	}

	zones := make([]switchboard.Zone, len(cfg.Zones))
	for i, zc := range cfg.Zones {
		sz := &scene.Zone{
			Name:        zc.Name,
			ModelURL:    assetURL(zc.Model),
			VideoURL:    assetURL(zc.Video),
			AspectRatio: zc.AspectRatio,
		}
		if zc.AnimationSeconds > 0 {
			sz.Mixer = scene.NewMixer(time.Duration(zc.AnimationSeconds * float64(time.Second)))
		}
		if cues == nil {
			sz.Video = &scene.Video{}
		}
		s.scene.Add(sz)
		s.names = append(s.names, zc.Name)

		zones[i] = switchboard.Zone{
			Index:       i,
			Model:       sz.Node,
			AspectRatio: zc.AspectRatio,
			DisplayName: zc.Name,
		}
		if sz.Mixer != nil {
			zones[i].Animation = sz.Mixer
		}
		if cues != nil {
			zones[i].Video = cues[i]
		} else {
			zones[i].Video = sz.Video
		}
	}

	board, err := switchboard.New(zones, switchboard.Options{
		DefaultIndex:     cfg.DefaultZone,
		TargetName:       cfg.TargetName,
		ModelScale:       float32(cfg.ModelScale),
		ModelCorrection:  rotationX(cfg.ModelRotationX),
		PauseVideoOnLoss: cfg.PauseVideoOnLoss,
		Logger:           logging.NewComponentLogger(log, "switchboard"),
	})
	if err != nil {
		if s.qlab != nil {
			s.qlab.Close()
		}
		return nil, err
	}
	s.board = board
	s.store()
	return s, nil
}

func dialQLab(cfg *config.Config, log *slog.Logger) (*qlab.Client, []switchboard.Video, error) {
	client, err := qlab.Dial(cfg.Video.QLabHost, cfg.Video.QLabPort)
	if err != nil {
		return nil, nil, fmt.Errorf("qlab: dial %s:%d: %w", cfg.Video.QLabHost, cfg.Video.QLabPort, err)
	}
	version, err := client.Version()
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("qlab: version: %w", err)
	}
	log.Info("qlab connected",
		slog.String("host", cfg.Video.QLabHost),
		slog.Int("port", cfg.Video.QLabPort),
		slog.String("version", version))

	videos, err := resolveCues(client, cfg, log)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return client, videos, nil
}

func resolveCues(client *qlab.Client, cfg *config.Config, log *slog.Logger) ([]switchboard.Video, error) {
	ws := cfg.Video.QLabWorkspace
	if ws == "" {
		list, err := client.Workspaces()
		if err != nil {
			return nil, fmt.Errorf("qlab: list workspaces: %w", err)
		}
		if len(list) == 0 {
			return nil, errors.New("qlab: no open workspaces")
		}
		ws = list[0].UniqueID
		log.Info("using first qlab workspace", slog.String("workspace", list[0].DisplayName))
	}
	if err := client.Connect(ws, cfg.Video.QLabPasscode); err != nil {
		return nil, fmt.Errorf("qlab: connect workspace %s: %w", ws, err)
	}
	if err := client.Subscribe(ws); err != nil {
		return nil, fmt.Errorf("qlab: subscribe workspace %s: %w", ws, err)
	}
	lists, err := client.CueLists(ws)
	if err != nil {
		return nil, fmt.Errorf("qlab: cue lists: %w", err)
	}

	videos := make([]switchboard.Video, len(cfg.Zones))
	for i, zc := range cfg.Zones {
		cue, ok := qlab.FindCue(lists, zc.Cue)
		if !ok {
			return nil, fmt.Errorf("qlab: zone %q: cue %s not found", zc.Name, zc.Cue)
		}
		videos[i] = qlab.NewVideoCue(client, ws, cue.UniqueID, log.With(slog.Int(logging.FieldZone, i)))
	}
	return videos, nil
}

func assetURL(name string) string {
	if name == "" {
		return ""
	}
	return path.Join("/assets", name)
}

func rotationX(degrees float64) math32.Quat {
	if degrees == 0 {
		return math32.Quat{}
	}
	return math32.NewQuatAxisAngle(math32.Vec3(1, 0, 0), math32.DegToRad(float32(degrees)))
}

// AddIndicator registers feedback that is refreshed whenever the active zone
// changes. Call before Run.
func (s *Stage) AddIndicator(name string, show func(active int) error) {
	s.indicators = append(s.indicators, indicator{name: name, show: show})
}

// Inputs accepts fire-and-forget events from control surfaces.
func (s *Stage) Inputs() chan<- switchboard.Event {
	return s.inputs
}

func (s *Stage) Names() []string {
	return append([]string(nil), s.names...)
}

// Snapshot returns the most recently published scene.
func (s *Stage) Snapshot() scene.Snapshot {
	return *s.snap.Load()
}

func (s *Stage) Close() error {
	s.hub.closeAll()
	if s.qlab != nil {
		return s.qlab.Close()
	}
	return nil
}
