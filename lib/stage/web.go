package stage

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"arzone/lib/switchboard"
)

//go:embed static
var staticFS embed.FS

func (s *Stage) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/advance", s.handleAdvance)
	mux.HandleFunc("POST /api/zones/{index}", s.handleSelect)
	mux.HandleFunc("GET /api/ws", s.handleWS)
	if s.cfg.AssetsDir != "" {
		mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(s.cfg.AssetsDir))))
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /", http.FileServer(http.FS(sub)))
	return mux
}

// Serve runs the HTTP API on ln until ctx is done.
func (s *Stage) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		s.hub.closeAll()
		srv.Shutdown(context.Background())
	}()
	s.log.Info("http listening", slog.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Stage) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (s *Stage) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, switchboard.Advance{})
}

func (s *Stage) handleSelect(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "zone index must be an integer")
		return
	}
	s.submit(w, r, switchboard.Select{Index: i})
}

func (s *Stage) submit(w http.ResponseWriter, r *http.Request, ev switchboard.Event) {
	err := s.Submit(r.Context(), ev)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.Snapshot())
	case errors.Is(err, switchboard.ErrOutOfRange):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Stage) handleWS(w http.ResponseWriter, r *http.Request) {
	initial, err := json.Marshal(s.Snapshot())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.hub.serve(w, r, initial)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
