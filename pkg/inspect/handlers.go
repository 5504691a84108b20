package inspect

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kinetic-dev/kinetic/pkg/kinetic"
)

// instanceSummary is one row of the instance listing.
type instanceSummary struct {
	ID       uint64    `json:"id"`
	Class    string    `json:"class"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	Jobs     int       `json:"jobs"`
	Children int       `json:"children"`
	ParentID uint64    `json:"parentId,omitempty"`
}

type instanceDetail struct {
	instanceSummary
	State map[string]any `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// resolve looks up the instance named by the {id} URL parameter.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) *kinetic.Instance {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("malformed instance id"))
		return nil
	}
	in := s.rt.Instance(id)
	if in == nil {
		writeError(w, http.StatusNotFound, errors.New("no such instance"))
		return nil
	}
	return in
}

func summarize(in *kinetic.Instance) instanceSummary {
	sum := instanceSummary{
		ID:       in.ID(),
		Class:    in.Class().Name(),
		Created:  in.Created(),
		Updated:  in.Updated(),
		Jobs:     in.Jobs(),
		Children: len(in.Children()),
	}
	if p := in.Parent(); p != nil {
		sum.ParentID = p.ID()
	}
	return sum
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	instances := s.rt.Instances()
	out := make([]instanceSummary, 0, len(instances))
	for _, in := range instances {
		out = append(out, summarize(in))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	in := s.resolve(w, r)
	if in == nil {
		return
	}
	state, err := in.Snapshot()
	if err != nil {
		writeError(w, http.StatusGone, err)
		return
	}
	writeJSON(w, http.StatusOK, instanceDetail{
		instanceSummary: summarize(in),
		State:           state,
	})
}

func (s *Server) handleSetProp(w http.ResponseWriter, r *http.Request) {
	in := s.resolve(w, r)
	if in == nil {
		return
	}
	name := chi.URLParam(r, "name")

	var body struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := in.Set(name, body.Value); err != nil {
		var rerr *kinetic.ReadonlyPropertyError
		var derr *kinetic.DestroyedError
		switch {
		case errors.As(err, &rerr):
			writeError(w, http.StatusConflict, err)
		case errors.As(err, &derr):
			writeError(w, http.StatusGone, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	value, err := in.Get(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": value})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	in := s.resolve(w, r)
	if in == nil {
		return
	}
	if err := in.Commit(); err != nil {
		writeError(w, http.StatusGone, err)
		return
	}
	past, future := in.HistoryDepth()
	writeJSON(w, http.StatusOK, map[string]any{"past": past, "future": future})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.handleHistoryStep(w, r, (*kinetic.Instance).Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.handleHistoryStep(w, r, (*kinetic.Instance).Redo)
}

func (s *Server) handleHistoryStep(w http.ResponseWriter, r *http.Request, step func(*kinetic.Instance) (bool, error)) {
	in := s.resolve(w, r)
	if in == nil {
		return
	}
	ok, err := step(in)
	if err != nil {
		writeError(w, http.StatusGone, err)
		return
	}
	state, err := in.Snapshot()
	if err != nil {
		writeError(w, http.StatusGone, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": ok, "state": state})
}
