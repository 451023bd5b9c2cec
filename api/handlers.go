package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/qbench/internal/report"
	"github.com/stellarlinkco/qbench/internal/results"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	if s == nil || s.lbStore == nil {
		respondError(c, http.StatusInternalServerError, errors.New("leaderboard store not configured"))
		return
	}

	problem := strings.TrimSpace(c.Query("problem"))
	if problem == "" && s.config != nil {
		problem = strings.TrimSpace(s.config.Dataset.Problem)
	}
	if problem == "" {
		respondError(c, http.StatusBadRequest, errors.New("problem is required"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	entries, err := s.lbStore.List(c.Request.Context(), problem, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleModelHistory(c *gin.Context) {
	if s == nil || s.lbStore == nil {
		respondError(c, http.StatusInternalServerError, errors.New("leaderboard store not configured"))
		return
	}

	model := strings.TrimSpace(c.Query("model"))
	problem := strings.TrimSpace(c.Query("problem"))
	if problem == "" && s.config != nil {
		problem = strings.TrimSpace(s.config.Dataset.Problem)
	}
	if model == "" || problem == "" {
		respondError(c, http.StatusBadRequest, errors.New("model and problem are required"))
		return
	}

	entries, err := s.lbStore.ModelHistory(c.Request.Context(), model, problem)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleListResults(c *gin.Context) {
	dir := s.outputDir()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, []string{})
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	c.JSON(http.StatusOK, files)
}

func (s *Server) handleGetResults(c *gin.Context) {
	path, err := s.resultsPath(c.Param("file"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	rows, err := results.Read(path)
	if err != nil {
		if os.IsNotExist(errors.Unwrap(err)) {
			respondError(c, http.StatusNotFound, fmt.Errorf("results file not found"))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file":  filepath.Base(path),
		"total": len(rows),
		"rows":  rowsJSON(rows),
	})
}

func (s *Server) handleGetReport(c *gin.Context) {
	path, err := s.resultsPath(c.Param("file"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	var humanEval, categories string
	if s.config != nil {
		humanEval = s.config.Dataset.HumanEval
		categories = s.config.Dataset.Categories
	}

	items, err := report.Load(path, humanEval, categories)
	if err != nil {
		if os.IsNotExist(errors.Unwrap(err)) {
			respondError(c, http.StatusNotFound, fmt.Errorf("results file not found"))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, report.Analyze(items))
}

// resultsPath confines a requested file name to the configured output
// directory.
func (s *Server) resultsPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("file is required")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if !strings.HasSuffix(name, ".csv") {
		return "", fmt.Errorf("invalid file name %q: expected a .csv file", name)
	}
	return filepath.Join(s.outputDir(), name), nil
}

func (s *Server) outputDir() string {
	if s != nil && s.config != nil {
		if dir := strings.TrimSpace(s.config.Output.Dir); dir != "" {
			return dir
		}
	}
	return "outputs"
}

type rowJSON struct {
	QuestionID       int    `json:"question_id"`
	Question         string `json:"question"`
	CorrectAnswer    string `json:"correct_answer"`
	CorrectLetter    string `json:"correct_letter"`
	ModelLetter      string `json:"model_letter"`
	ModelAnswer      string `json:"model_answer"`
	Correct          bool   `json:"correct"`
	ModelResponse    string `json:"model_response"`
	Subdomain        string `json:"subdomain"`
	PromptTokens     int    `json:"prompt_tokens"`
	CachedTokens     int    `json:"cached_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

func rowsJSON(rows []results.Row) []rowJSON {
	out := make([]rowJSON, len(rows))
	for i, r := range rows {
		out[i] = rowJSON{
			QuestionID:       r.QuestionID,
			Question:         r.Question,
			CorrectAnswer:    r.CorrectAnswer,
			CorrectLetter:    r.CorrectLetter,
			ModelLetter:      r.ModelLetter,
			ModelAnswer:      r.ModelAnswer,
			Correct:          r.Correct,
			ModelResponse:    r.ModelResponse,
			Subdomain:        r.Subdomain,
			PromptTokens:     r.PromptTokens,
			CachedTokens:     r.CachedTokens,
			CompletionTokens: r.CompletionTokens,
		}
	}
	return out
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v > 100 {
		v = 100
	}
	return v, nil
}
