package server

import (
	"net/http"
	"strconv"
	"strings"

	"riskintel/pkg/domain"
)

// Reference data handlers. Each collection route serves list+create, each id
// route serves get+replace+delete.

func pathID(r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request, _ string) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.app.ListCountries()
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	case http.MethodPost:
		var c domain.Country
		if err := decodeJSON(r, &c); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
			return
		}
		c.ID = 0
		saved, err := s.app.SaveCountry(c)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleCountryByID(w http.ResponseWriter, r *http.Request, _ string) {
	id, ok := pathID(r, "/countries/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		c, err := s.app.GetCountry(id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodPut:
		if _, err := s.app.GetCountry(id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		var c domain.Country
		if err := decodeJSON(r, &c); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
			return
		}
		c.ID = id
		saved, err := s.app.SaveCountry(c)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	case http.MethodDelete:
		if err := s.app.DeleteCountry(id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleRiskCategories(w http.ResponseWriter, r *http.Request, _ string) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.app.ListRiskCategories()
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	case http.MethodPost:
		var c domain.RiskCategory
		if err := decodeJSON(r, &c); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
			return
		}
		c.ID = 0
		saved, err := s.app.SaveRiskCategory(c)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleRiskCategoryByID(w http.ResponseWriter, r *http.Request, _ string) {
	id, ok := pathID(r, "/risk-categories/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		c, err := s.app.GetRiskCategory(id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodPut:
		if _, err := s.app.GetRiskCategory(id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		var c domain.RiskCategory
		if err := decodeJSON(r, &c); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
			return
		}
		c.ID = id
		saved, err := s.app.SaveRiskCategory(c)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	case http.MethodDelete:
		if err := s.app.DeleteRiskCategory(id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleRiskData(w http.ResponseWriter, r *http.Request, _ string) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.app.ListRiskData()
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	case http.MethodPost:
		var d domain.RiskData
		if err := decodeJSON(r, &d); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
			return
		}
		d.ID = 0
		saved, err := s.app.SaveRiskData(d)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleRiskDataByID(w http.ResponseWriter, r *http.Request, _ string) {
	id, ok := pathID(r, "/risk-data/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		d, err := s.app.GetRiskData(id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	case http.MethodPut:
		if _, err := s.app.GetRiskData(id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		var d domain.RiskData
		if err := decodeJSON(r, &d); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
			return
		}
		d.ID = id
		saved, err := s.app.SaveRiskData(d)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	case http.MethodDelete:
		if err := s.app.DeleteRiskData(id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleRiskForecasts(w http.ResponseWriter, r *http.Request, _ string) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.app.ListRiskForecasts()
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	case http.MethodPost:
		var f domain.RiskForecast
		if err := decodeJSON(r, &f); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
			return
		}
		f.ID = 0
		saved, err := s.app.SaveRiskForecast(f)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleRiskForecastByID(w http.ResponseWriter, r *http.Request, _ string) {
	id, ok := pathID(r, "/risk-forecasts/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		f, err := s.app.GetRiskForecast(id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	case http.MethodPut:
		if _, err := s.app.GetRiskForecast(id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		var f domain.RiskForecast
		if err := decodeJSON(r, &f); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
			return
		}
		f.ID = id
		saved, err := s.app.SaveRiskForecast(f)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	case http.MethodDelete:
		if err := s.app.DeleteRiskForecast(id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		s.methodNotAllowed(w, r)
	}
}
