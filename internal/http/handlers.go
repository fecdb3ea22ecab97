package http

import (
	"net/http"

	"honoraires/internal/core"
	"honoraires/internal/ledger"
	"honoraires/internal/log"
)

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	f, err := ledger.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpRead, err, nil)
		return
	}
	iv, err := s.svc.ResolvePeriod(f)
	if err != nil {
		writeError(w, r, log.OpRead, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Kind string `json:"kind"`
		ledger.Interval
	}{Kind: f.Kind.String(), Interval: iv})
}

// Clients

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.svc.Clients().List(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err, nil)
		return
	}
	if clients == nil {
		clients = []core.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpRead, err, nil)
		return
	}
	c, err := s.svc.Clients().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, log.OpRead, err, log.NewFields().WithClient(id))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var c core.Client
	if err := decodeJSON(w, r, &c, false); err != nil {
		writeError(w, r, log.OpCreate, err, nil)
		return
	}
	saved, err := s.svc.CreateClient(r.Context(), c)
	if err != nil {
		writeError(w, r, log.OpCreate, err, nil)
		return
	}
	s.logger.InfoContext(r.Context(), "Client created", log.FieldClientID, saved.ID)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpRead, err, nil)
		return
	}
	q := r.URL.Query()
	year, err := queryYear(q)
	if err != nil {
		writeError(w, r, log.OpRead, err, nil)
		return
	}

	// Without an explicit opening the carried balance of the year applies.
	var opening core.Money
	if v := q.Get("opening"); v != "" {
		if err := opening.UnmarshalText([]byte(v)); err != nil {
			writeError(w, r, log.OpRead, err, nil)
			return
		}
	} else if opening, err = s.svc.CarriedBalance(r.Context(), id, year); err != nil {
		writeError(w, r, log.OpRead, err, log.NewFields().WithClient(id))
		return
	}

	yb, err := s.svc.ComputeYearBalances(r.Context(), id, year, &opening)
	if err != nil {
		writeError(w, r, log.OpRead, err, log.NewFields().WithClient(id).WithPeriod(year, 0))
		return
	}
	writeJSON(w, http.StatusOK, yb)
}

func (s *Server) handleCarried(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpRead, err, nil)
		return
	}
	year, err := queryYear(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpRead, err, nil)
		return
	}
	carried, err := s.svc.CarriedBalance(r.Context(), id, year)
	if err != nil {
		writeError(w, r, log.OpRead, err, log.NewFields().WithClient(id).WithPeriod(year, 0))
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ClientID int64      `json:"client_id"`
		Year     int        `json:"year"`
		Carried  core.Money `json:"carried"`
	}{id, year, carried})
}

// Statements

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ledger.ParseFilter(q)
	if err != nil {
		writeError(w, r, log.OpStatement, err, nil)
		return
	}

	var st ledger.Statement
	switch ledger.ScopeKind(q.Get("scope")) {
	case ledger.ScopeOffice:
		iv, err := s.svc.ResolvePeriod(f)
		if err != nil {
			writeError(w, r, log.OpStatement, err, nil)
			return
		}
		st, err = s.svc.AggregateStatement(r.Context(), ledger.OfficeScope(), iv, nil)
		if err != nil {
			writeError(w, r, log.OpStatement, err, nil)
			return
		}
	case ledger.ScopeClient:
		id, err := parseClientParam(q.Get("client_id"))
		if err != nil {
			writeError(w, r, log.OpStatement, err, nil)
			return
		}
		st, err = s.svc.ClientStatement(r.Context(), id, f, queryBool(q, "carry"))
		if err != nil {
			writeError(w, r, log.OpStatement, err, log.NewFields().WithClient(id))
			return
		}
	default:
		writeError(w, r, log.OpStatement, core.ErrInvalidFilter, nil)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
