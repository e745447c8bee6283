package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/service"
)

// Search handlers

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	req := service.SearchRequest{
		Text:         q.Get("text"),
		DetailedDesc: q.Get("detailed_desc"),
	}

	var err error
	if req.ConditionIDs, err = parseIDs(q.Get("conditions")); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid conditions: "+err.Error())
		return
	}
	if req.SponsorIDs, err = parseIDs(q.Get("sponsors")); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid sponsors: "+err.Error())
		return
	}
	if req.Limit, req.Offset, err = parsePage(q.Get("limit"), q.Get("offset")); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.searchService.Search(ctx, &req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	if q.Get("download") != "" && q.Get("download") != "0" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=download.csv")
		w.WriteHeader(http.StatusOK)
		if err := service.ExportCSV(w, results); err != nil {
			s.logger.Error().Err(err).Msg("writing CSV download")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleQuickSearch(w http.ResponseWriter, r *http.Request) {
	term := mux.Vars(r)["term"]

	results, err := s.searchService.QuickSearch(r.Context(), term)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

// Metadata handlers

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.metadataService.Summary(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetStudy(w http.ResponseWriter, r *http.Request) {
	nctID := mux.Vars(r)["nct_id"]

	study, err := s.metadataService.GetStudy(r.Context(), nctID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, study)
}

func (s *Server) handleListStudies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := parsePage(q.Get("limit"), q.Get("offset"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	studies, err := s.metadataService.GetStudies(r.Context(), limit, offset)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, studies)
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	conditions, err := s.metadataService.Conditions(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, conditions)
}

func (s *Server) handleSponsors(w http.ResponseWriter, r *http.Request) {
	sponsors, err := s.metadataService.Sponsors(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sponsors)
}

// writeServiceError maps error kinds onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch errors.GetKind(err) {
	case errors.KindNotFound:
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.KindValidation, errors.KindRequired:
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseIDs splits a comma separated list of integer ids. Blank entries are
// ignored.
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parsePage(rawLimit, rawOffset string) (limit, offset int, err error) {
	if rawLimit != "" {
		if limit, err = strconv.Atoi(rawLimit); err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", rawLimit)
		}
	}
	if rawOffset != "" {
		if offset, err = strconv.Atoi(rawOffset); err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", rawOffset)
		}
	}
	return limit, offset, nil
}
