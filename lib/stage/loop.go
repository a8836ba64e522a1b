package stage

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"arzone/lib/qlab"
	"arzone/lib/switchboard"
)

// Run applies events until ctx is done. tracking may be nil or closed; the
// loop keeps serving the other inputs. QLab updates are logged, and a dropped
// QLab connection is reported once.
func (s *Stage) Run(ctx context.Context, tracking <-chan switchboard.Event) error {
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()
	last := time.Now()

	var updates <-chan qlab.Update
	if s.qlab != nil {
		updates = s.qlab.Updates()
	}

	s.indicate()
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				s.log.Error("qlab connection lost, zone videos will not play")
				updates = nil
				continue
			}
			s.log.Debug("qlab update", slog.String("address", u.Address))
		case ev, ok := <-tracking:
			if !ok {
				tracking = nil
				continue
			}
			s.apply(ev)
		case ev := <-s.inputs:
			s.apply(ev)
		case req := <-s.requests:
			req.done <- s.apply(req.ev)
		case now := <-ticker.C:
			s.board.Tick(now.Sub(last))
			last = now
			s.store()
		}
	}
}

// Submit applies ev on the loop and waits for the result.
func (s *Stage) Submit(ctx context.Context, ev switchboard.Event) error {
	req := request{ev: ev, done: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stage) apply(ev switchboard.Event) error {
	prev := s.board.ActiveIndex()
	if err := s.board.Handle(ev); err != nil {
		s.log.Warn("event rejected", slog.String("event", ev.String()), slog.Any("error", err))
		return err
	}
	s.broadcast()
	if s.board.ActiveIndex() != prev {
		s.indicate()
	}
	return nil
}

func (s *Stage) store() {
	snap := s.scene.Snapshot(s.board.ActiveIndex(), s.board.TargetVisible())
	s.snap.Store(&snap)
}

func (s *Stage) broadcast() {
	s.store()
	buf, err := json.Marshal(s.snap.Load())
	if err != nil {
		s.log.Error("encode snapshot", slog.Any("error", err))
		return
	}
	s.hub.broadcast(buf)
}

func (s *Stage) indicate() {
	active := s.board.ActiveIndex()
	for _, ind := range s.indicators {
		if err := ind.show(active); err != nil {
			s.log.Warn("indicator update failed", slog.String("indicator", ind.name), slog.Any("error", err))
		}
	}
}
