package qlab

import "log/slog"

// VideoCue drives one QLab video cue as a zone's video. QLab errors are
// logged and otherwise ignored; the cue keeps whatever state QLab left it in.
type VideoCue struct {
	client    *Client
	workspace string
	cueID     string
	log       *slog.Logger
	paused    bool
}

func NewVideoCue(client *Client, workspaceID, cueID string, log *slog.Logger) *VideoCue {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &VideoCue{
		client:    client,
		workspace: workspaceID,
		cueID:     cueID,
		log:       log.With(slog.String("cue", cueID)),
	}
}

func (v *VideoCue) Play() {
	if v.paused {
		v.check("resume", v.client.CueResume(v.workspace, v.cueID))
		v.paused = false
		return
	}
	v.check("start", v.client.CueStart(v.workspace, v.cueID))
}

func (v *VideoCue) Pause() {
	v.check("pause", v.client.CuePause(v.workspace, v.cueID))
	v.paused = true
}

func (v *VideoCue) PauseAndResetToStart() {
	v.check("stop", v.client.CueStop(v.workspace, v.cueID))
	v.check("load", v.client.CueLoad(v.workspace, v.cueID))
	v.paused = false
}

func (v *VideoCue) check(op string, err error) {
	if err != nil {
		v.log.Warn("qlab cue command failed", slog.String("op", op), slog.Any("error", err))
	}
}

// FindCue returns the first cue with the given number in any cue list.
func FindCue(lists []Cue, number string) (Cue, bool) {
	for _, c := range lists {
		if c.Number == number && c.Type != "Cue List" {
			return c, true
		}
		if found, ok := FindCue(c.Cues, number); ok {
			return found, true
		}
	}
	return Cue{}, false
}
