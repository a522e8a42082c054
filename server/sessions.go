package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/pages"
	"github.com/zalepa/infractions/series"
)

// sessionStore holds open sessions in memory. Nothing survives a restart.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*pages.Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*pages.Session)}
}

func (st *sessionStore) create(p pages.Page) (string, *pages.Session) {
	id := uuid.NewString()
	sess := pages.NewSession(p)
	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()
	return id, sess
}

func (st *sessionStore) get(id string) (*pages.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

func (st *sessionStore) clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions = make(map[string]*pages.Session)
}

type sessionResponse struct {
	ID          string             `json:"id"`
	Page        string             `json:"page"`
	Description series.Description `json:"description"`
}

// decodeEvents accepts a single event object or an array of events.
func decodeEvents(data []byte) ([]filter.Event, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, eris.New("server: empty event body")
	}
	if data[0] == '[' {
		var events []filter.Event
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, eris.Wrap(err, "server: decode events")
		}
		return events, nil
	}
	var ev filter.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, eris.Wrap(err, "server: decode event")
	}
	return []filter.Event{ev}, nil
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	p, ok := s.page(w, r)
	if !ok {
		return
	}
	id, sess := s.sessions.create(p)
	zap.L().Info("session opened", zap.String("session", id), zap.String("page", p.ID()))
	respondWithJSON(w, http.StatusCreated, sessionResponse{ID: id, Page: p.ID(), Description: sess.Description()})
}

// session resolves the {sid} parameter, writing a 404 when it names no
// open session.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *pages.Session, bool) {
	id := chi.URLParam(r, "sid")
	sess, ok := s.sessions.get(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Session not found", nil)
		return "", nil, false
	}
	return id, sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, sessionResponse{ID: id, Page: sess.Page().ID(), Description: sess.Description()})
}

func (s *Server) postEvents(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	events, err := decodeEvents(body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid event", err)
		return
	}
	respondWithJSON(w, http.StatusOK, sessionResponse{ID: id, Page: sess.Page().ID(), Description: sess.Dispatch(events...)})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sid")
	if !s.sessions.remove(id) {
		respondWithError(w, http.StatusNotFound, "Session not found", nil)
		return
	}
	zap.L().Info("session closed", zap.String("session", id))
	w.WriteHeader(http.StatusNoContent)
}
