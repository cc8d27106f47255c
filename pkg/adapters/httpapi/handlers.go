package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aretw0/tickline/pkg/adapters/fs"
	"github.com/aretw0/tickline/pkg/core"
	"github.com/aretw0/tickline/pkg/easing"
	"github.com/aretw0/tickline/pkg/timing"
)

type keyframeBody struct {
	Time   timing.Tick `json:"time"`
	Value  float64     `json:"value"`
	Easing easing.Tag  `json:"easing"`
}

type noteBody struct {
	ID        *int         `json:"id,omitempty"`
	Type      string       `json:"type"`
	Time      timing.Tick  `json:"time"`
	HoldTime  *timing.Tick `json:"holdTime,omitempty"`
	PosX      float64      `json:"posX"`
	Width     float64      `json:"width"`
	IsFake    bool         `json:"isFake"`
	FallSpeed float64      `json:"fallSpeed"`
	FallSide  *bool        `json:"fallSide,omitempty"`
}

type highlightBody struct {
	Value int    `json:"value"`
	Color string `json:"color"`
}

type playbackBody struct {
	timing.State
	PreferTicks   bool    `json:"preferTicks"`
	TickPerSecond float64 `json:"tickPerSecond"`
}

type conversion struct {
	Ticks         float64 `json:"ticks"`
	Seconds       float64 `json:"seconds"`
	AudioPosition float64 `json:"audioPosition"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.State())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	data, err := fs.NewJSONSerializer().Encode(s.svc.Document().Snapshot())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Persist-State", string(s.svc.PersistState()))
	_, _ = w.Write(data)
}

// handleConvert converts ?ticks= or ?seconds= with the document tempo.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	tempo := s.svc.Document().Tempo()
	q := r.URL.Query()

	var c conversion
	switch {
	case q.Has("ticks"):
		v, err := strconv.ParseFloat(q.Get("ticks"), 64)
		if err != nil {
			s.writeError(w, badRequest("ticks", err))
			return
		}
		c.Ticks = v
		c.Seconds = tempo.TicksToSeconds(v)
	case q.Has("seconds"):
		v, err := strconv.ParseFloat(q.Get("seconds"), 64)
		if err != nil {
			s.writeError(w, badRequest("seconds", err))
			return
		}
		c.Seconds = v
		c.Ticks = tempo.SecondsToTicks(v)
	default:
		s.writeError(w, &core.ValidationError{Field: "query", Reason: "ticks or seconds is required"})
		return
	}
	c.AudioPosition = tempo.AudioPosition(c.Ticks).Seconds()
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.playback())
}

func (s *Server) playback() playbackBody {
	return playbackBody{
		State:         s.svc.Playback(),
		PreferTicks:   s.svc.PreferTicks(),
		TickPerSecond: s.svc.Document().Tempo().TickPerSecond(),
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Start(); err != nil {
		// Playback keeps running without audio.
		s.logger.Warn("audio failed to start", "error", err)
	}
	s.writeJSON(w, http.StatusOK, s.playback())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Stop(); err != nil {
		s.logger.Warn("audio failed to pause", "error", err)
	}
	s.writeJSON(w, http.StatusOK, s.playback())
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ticks float64 `json:"ticks"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.svc.Seek(body.Ticks); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.playback())
}

func (s *Server) handleAddHighlight(w http.ResponseWriter, r *http.Request) {
	var body highlightBody
	if !s.decode(w, r, &body) {
		return
	}
	color, err := core.ParseColor(body.Color)
	if err != nil {
		s.writeError(w, badRequest("color", err))
		return
	}
	if err := s.svc.AddHighlight(body.Value, color); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.svc.Document().Highlights())
}

func (s *Server) handleRemoveHighlight(w http.ResponseWriter, r *http.Request) {
	i, _ := strconv.Atoi(mux.Vars(r)["index"])
	if err := s.svc.RemoveHighlight(i); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddLine(w http.ResponseWriter, r *http.Request) {
	id, err := s.svc.AddLine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int{"id": id})
}

func (s *Server) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveLine(lineID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var body noteBody
	if !s.decode(w, r, &body) {
		return
	}
	typ, err := core.ParseNoteType(body.Type)
	if err != nil {
		s.writeError(w, badRequest("type", err))
		return
	}
	spec := core.NoteSpec{
		ID:        body.ID,
		Type:      typ,
		Time:      body.Time,
		HoldTime:  body.HoldTime,
		PosX:      body.PosX,
		Width:     body.Width,
		IsFake:    body.IsFake,
		FallSpeed: body.FallSpeed,
		FallSide:  body.FallSide,
	}
	if err := s.svc.AddNote(lineID(r), spec); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGetCurve(w http.ResponseWriter, r *http.Request) {
	ch, err := core.ParseChannel(mux.Vars(r)["channel"])
	if err != nil {
		s.writeError(w, badRequest("channel", err))
		return
	}

	// With ?at= the curve is evaluated instead of listed.
	if at := r.URL.Query().Get("at"); at != "" {
		tick, err := strconv.ParseFloat(at, 64)
		if err != nil {
			s.writeError(w, badRequest("at", err))
			return
		}
		v, err := s.svc.ValueAt(lineID(r), ch, tick)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]float64{"tick": tick, "value": v})
		return
	}

	var keys []keyframeBody
	err = s.svc.View(func(d *core.Document) error {
		l, err := d.Line(lineID(r))
		if err != nil {
			return err
		}
		c, err := l.Curve(ch)
		if err != nil {
			return err
		}
		keys = make([]keyframeBody, 0, c.Len())
		for _, kf := range c.Keyframes() {
			keys = append(keys, keyframeBody{Time: kf.Time, Value: kf.Value, Easing: kf.Easing})
		}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, keys)
}

// handlePutKeyframe inserts a keyframe, replacing the one at the same tick.
func (s *Server) handlePutKeyframe(w http.ResponseWriter, r *http.Request) {
	ch, err := core.ParseChannel(mux.Vars(r)["channel"])
	if err != nil {
		s.writeError(w, badRequest("channel", err))
		return
	}
	var body keyframeBody
	if !s.decode(w, r, &body) {
		return
	}
	kf := core.Keyframe{Time: body.Time, Value: body.Value, Easing: body.Easing}
	if err := s.svc.InsertKeyframe(lineID(r), ch, kf); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveKeyframe(w http.ResponseWriter, r *http.Request) {
	ch, err := core.ParseChannel(mux.Vars(r)["channel"])
	if err != nil {
		s.writeError(w, badRequest("channel", err))
		return
	}
	i, _ := strconv.Atoi(mux.Vars(r)["index"])
	if err := s.svc.RemoveKeyframe(lineID(r), ch, i); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.SaveCache(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writePersistState(w)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.LoadCache(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writePersistState(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Dest string `json:"dest"`
	}
	if r.ContentLength != 0 && !s.decode(w, r, &body) {
		return
	}
	path, err := s.svc.ExportArchive(r.Context(), body.Dest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"path": path, "state": string(s.svc.PersistState())})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if body.Path == "" {
		s.writeError(w, &core.ValidationError{Field: "path", Reason: "archive path is required"})
		return
	}
	if err := s.svc.ImportArchive(r.Context(), body.Path); err != nil {
		s.writeError(w, err)
		return
	}
	s.writePersistState(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ResetAll(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writePersistState(w)
}

func (s *Server) writePersistState(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, map[string]string{"state": string(s.svc.PersistState())})
}

func lineID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func badRequest(field string, err error) error {
	return &core.ValidationError{Field: field, Reason: err.Error()}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, badRequest("body", fmt.Errorf("malformed json: %w", err)))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrCorrupt):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, timing.ErrRunning), errors.Is(err, timing.ErrNotRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
