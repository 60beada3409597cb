package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/middleware"
	"github.com/gorilla/mux"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := authsvc.ListUsersRequest{Search: q.Get("search")}

	var ok bool
	if req.Page, ok = intParam(w, q, "page", defaultPage); !ok {
		return
	}
	if req.Size, ok = intParam(w, q, "size", defaultPageSize); !ok {
		return
	}
	if req.IsActive, ok = boolParam(w, q, "is_active"); !ok {
		return
	}
	if req.IsSuperuser, ok = boolParam(w, q, "is_superuser"); !ok {
		return
	}

	p, _ := middleware.PrincipalFromContext(r.Context())
	list, err := s.engine.ListUsers(r.Context(), *p, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	req := authsvc.CreateUserRequest{IsActive: true}
	if !decode(w, r, &req) {
		return
	}
	p, _ := middleware.PrincipalFromContext(r.Context())
	user, err := s.engine.CreateUser(r.Context(), *p, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, user)
}

func intParam(w http.ResponseWriter, q url.Values, name string, def int) (int, bool) {
	raw := q.Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		middleware.WriteDetail(w, http.StatusUnprocessableEntity, "Invalid query parameter: "+name)
		return 0, false
	}
	return n, true
}

func boolParam(w http.ResponseWriter, q url.Values, name string) (*bool, bool) {
	raw := q.Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		middleware.WriteDetail(w, http.StatusUnprocessableEntity, "Invalid query parameter: "+name)
		return nil, false
	}
	return &v, true
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	user, err := s.engine.GetUser(r.Context(), *p, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch authsvc.UserPatch
	if !decode(w, r, &patch) {
		return
	}
	p, _ := middleware.PrincipalFromContext(r.Context())
	user, err := s.engine.UpdateUser(r.Context(), *p, mux.Vars(r)["id"], patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	if err := s.engine.DeleteUser(r.Context(), *p, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
