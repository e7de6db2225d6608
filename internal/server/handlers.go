package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/FocuswithJustin/Galley/core/recipe"
	"github.com/FocuswithJustin/Galley/core/report"
	"github.com/FocuswithJustin/Galley/internal/logging"
)

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
	Meta    *apiMeta  `json:"meta,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// recipeSummary is one catalog row.
type recipeSummary struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Servings *int32   `json:"servings,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// diagInfo is one diagnostic on the wire.
type diagInfo struct {
	Severity string `json:"severity"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
	Help     string `json:"help,omitempty"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// recipeResult is the full answer for one recipe request.
type recipeResult struct {
	Name     string              `json:"name"`
	Path     string              `json:"path"`
	Recipe   *recipe.Recipe      `json:"recipe"`
	Scaling  *recipe.ScalingData `json:"scaling,omitempty"`
	Errors   []diagInfo          `json:"errors,omitempty"`
	Warnings []diagInfo          `json:"warnings,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	n, err := s.idx.Count()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INDEX_ERROR", "failed to count recipes")
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"recipes": n,
	})
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	entries, err := s.idx.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INDEX_ERROR", "failed to list recipes")
		return
	}
	summaries := make([]recipeSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, recipeSummary{
			Name:     e.Name,
			Path:     e.Path,
			Servings: e.Servings,
			Tags:     e.Tags,
		})
	}
	respondWithTotal(w, http.StatusOK, summaries, len(summaries))
}

// handleRecipe parses one recipe by catalog name. An optional `scale`
// parameter multiplies quantities by a factor; `servings` targets a
// serving count against the declared one. The response always carries
// the model plus every diagnostic, scaling included.
func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "MISSING_NAME", "the name query parameter is required")
		return
	}
	target, scaled, err := scaleTarget(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_SCALE", err.Error())
		return
	}

	entries, err := s.idx.Lookup(name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INDEX_ERROR", "failed to look up recipe")
		return
	}
	switch len(entries) {
	case 0:
		respondError(w, http.StatusNotFound, "NOT_FOUND", "no recipe with that name")
		return
	case 1:
	default:
		respondError(w, http.StatusConflict, "AMBIGUOUS_NAME",
			strconv.Itoa(len(entries))+" recipes share this name")
		return
	}
	entry := entries[0]

	p, err := s.loadRecipe(entry.Path)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "READ_ERROR", "failed to load recipe file")
		return
	}

	result := recipeResult{Name: entry.Name, Path: entry.Path, Recipe: p.rec}
	rep := p.rep
	if scaled {
		sc, srep := s.parser.Scale(p.rec, target)
		result.Recipe = &sc.Recipe
		result.Scaling = &sc.Scaling
		rep = rep.Zip(srep)
	}
	result.Errors = diagInfos(rep.Errors())
	result.Warnings = diagInfos(rep.Warnings())

	logging.RecipeParsed(entry.Name, len(result.Errors), len(result.Warnings))
	respond(w, http.StatusOK, result)
}

// scaleTarget reads the scaling parameters. scaled is false when the
// request asks for the recipe as written.
func scaleTarget(r *http.Request) (target recipe.Target, scaled bool, err error) {
	factor := r.URL.Query().Get("scale")
	servings := r.URL.Query().Get("servings")
	switch {
	case factor != "" && servings != "":
		return target, false, errServingsAndScale
	case factor != "":
		f, perr := strconv.ParseFloat(factor, 64)
		if perr != nil || f <= 0 {
			return target, false, errBadScale
		}
		return recipe.ScaleFactor(f), true, nil
	case servings != "":
		n, perr := strconv.ParseUint(servings, 10, 32)
		if perr != nil || n == 0 {
			return target, false, errBadServings
		}
		return recipe.ToServings(uint32(n)), true, nil
	}
	return target, false, nil
}

var (
	errServingsAndScale = errParam("scale and servings are mutually exclusive")
	errBadScale         = errParam("scale must be a positive number")
	errBadServings      = errParam("servings must be a positive integer")
)

type errParam string

func (e errParam) Error() string { return string(e) }

func diagInfos(diags []*report.Diag) []diagInfo {
	if len(diags) == 0 {
		return nil
	}
	out := make([]diagInfo, 0, len(diags))
	for _, d := range diags {
		sp := d.Primary()
		out = append(out, diagInfo{
			Severity: d.Severity.String(),
			Code:     d.Code,
			Message:  d.Message,
			Help:     d.Help,
			Start:    sp.Start,
			End:      sp.End,
		})
	}
	return out
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, apiResponse{
		Success: true,
		Data:    data,
		Meta:    &apiMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondWithTotal(w http.ResponseWriter, status int, data any, total int) {
	writeJSON(w, status, apiResponse{
		Success: true,
		Data:    data,
		Meta: &apiMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiResponse{
		Success: false,
		Error:   &apiError{Code: code, Message: message},
		Meta:    &apiMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}
