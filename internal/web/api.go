package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/codefionn/rechenschnell/internal/calc"
	"github.com/codefionn/rechenschnell/internal/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/julienschmidt/httprouter"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// apiValidator checks REST requests against the embedded OpenAPI document.
type apiValidator struct {
	router routers.Router
}

func newAPIValidator() (*apiValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAPI router: %w", err)
	}
	return &apiValidator{router: router}, nil
}

func (v *apiValidator) validate(ctx context.Context, r *http.Request) error {
	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		return err
	}
	return openapi3filter.ValidateRequest(ctx, &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
	})
}

// validated wraps h so that requests failing validation get a 400.
func (s *Server) validated(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if err := s.api.validate(r.Context(), r); err != nil {
			s.log.Debug("rejected %s %s: %v", r.Method, r.URL.Path, err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h(w, r, ps)
	}
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	resp := EvaluateResponse{
		Expression: req.Expression,
		Sanitized:  calc.Sanitize(req.Expression),
	}
	value, err := calc.Evaluate(req.Expression)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Value = value
		resp.Display = calc.FormatNumber(value)
		resp.Valid = true
	}
	s.metrics.recordEvaluation("api", resp.Valid)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.log.Info("session %s created via API", sess.ID)
	writeJSON(w, http.StatusCreated, SessionResponse{ID: sess.ID, State: newStateInfo(sess.State())})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sess, err := s.sessions.Get(ps.ByName("id"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: sess.ID, State: newStateInfo(sess.State())})
}

func (s *Server) handleSessionKeys(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req KeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	id := ps.ByName("id")
	changed := false
	state, err := s.sessions.Do(id, func(e *calc.Engine) {
		for _, key := range req.Keys {
			if applyAction(e, calc.ActionForKey(key), s.metrics, "api") {
				changed = true
			}
		}
	})
	if err != nil {
		s.writeSessionError(w, err)
		return
	}

	if changed {
		s.hub.BroadcastSession(id, nil, stateMessage(id, state))
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, State: newStateInfo(state)})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if err := s.sessions.Delete(id); err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.hub.CloseSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openAPIDocument)
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrLimitReached):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error("session error: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
