package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/leafcare/planty/internal/care"
	"github.com/leafcare/planty/internal/logging"
	"github.com/leafcare/planty/internal/store"
)

const maxPhotoBytes = 10 << 20

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// parseDay turns "YYYY-MM-DD" into the midnight-normalized epoch millis the
// calendar keys tasks by.
func parseDay(s string) (int64, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// --- plants ---

func (s *Server) handleListPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := s.store.ListPlants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plants == nil {
		plants = []*store.Plant{}
	}
	writeJSON(w, http.StatusOK, plants)
}

func (s *Server) handleSearchPlants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	plants, err := s.store.SearchPlants(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plants == nil {
		plants = []*store.Plant{}
	}
	writeJSON(w, http.StatusOK, plants)
}

func (s *Server) handleGetPlant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	plant, err := s.store.GetPlant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plant == nil {
		writeError(w, http.StatusNotFound, "plant not found")
		return
	}
	writeJSON(w, http.StatusOK, plant)
}

// handleCreatePlant registers a plant from a multipart photo upload. The
// photo goes through AI analysis; non-plants are rejected. The photo is
// stored durably and the calendar synchronized so the first tasks appear
// immediately.
func (s *Server) handleCreatePlant(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "photo analysis not configured")
		return
	}

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read photo: "+err.Error())
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	analysis, err := s.analyzer.AnalyzePhoto(r.Context(), image, mimeType)
	if err != nil {
		writeError(w, http.StatusBadGateway, "analysis failed: "+err.Error())
		return
	}
	if !analysis.IsPlant {
		writeError(w, http.StatusUnprocessableEntity, "the photo does not appear to show a plant")
		return
	}

	photoPath, err := s.photos.Save(image, mimeType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	nickname := r.FormValue("nickname")
	if nickname == "" {
		nickname = analysis.OfficialName
	}

	plant := &store.Plant{
		Nickname:          nickname,
		OfficialName:      analysis.OfficialName,
		PhotoPath:         photoPath,
		WateringCycleMin:  analysis.WateringCycleMin,
		WateringCycleMax:  analysis.WateringCycleMax,
		PesticideCycleMin: analysis.PesticideCycleMin,
		PesticideCycleMax: analysis.PesticideCycleMax,
		TempRange:         analysis.TempRange,
		LifespanMin:       analysis.LifespanMin,
		LifespanMax:       analysis.LifespanMax,
		EstimatedAgeDays:  analysis.EstimatedAgeDays,
		HealthRating:      analysis.HealthRating,
		LastWatered:       s.now().UnixMilli(),
		LastPesticide:     s.now().UnixMilli(),
	}
	if err := s.store.InsertPlant(r.Context(), plant); err != nil {
		if rmErr := s.photos.Remove(photoPath); rmErr != nil {
			logging.Error("api", "remove orphan photo: %v", rmErr)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.sync.Sync(r.Context())
	writeJSON(w, http.StatusCreated, plant)
}

func (s *Server) handleUpdatePlant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Nickname *string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	plant, err := s.store.GetPlant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plant == nil {
		writeError(w, http.StatusNotFound, "plant not found")
		return
	}

	if req.Nickname != nil && *req.Nickname != "" {
		snapshot := *plant
		snapshot.Nickname = *req.Nickname
		if err := s.store.UpdatePlant(r.Context(), &snapshot); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		plant = &snapshot
	}
	writeJSON(w, http.StatusOK, plant)
}

func (s *Server) handleDeletePlant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	plant, err := s.store.GetPlant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plant == nil {
		writeError(w, http.StatusNotFound, "plant not found")
		return
	}

	if err := s.store.DeletePlant(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.photos.Remove(plant.PhotoPath); err != nil {
		logging.Error("api", "remove photo for plant %d: %v", id, err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCarePlant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Type store.TaskType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	if err := s.completer.MarkCaredFor(r.Context(), id, req.Type); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- diary ---

func (s *Server) handleListDiary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	entries, err := s.store.DiaryEntriesForPlant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*store.DiaryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAddDiary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Content      string `json:"content"`
		LinkedTaskID *int64 `json:"linked_task_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}

	entry := &store.DiaryEntry{
		PlantID:      id,
		Content:      req.Content,
		LinkedTaskID: req.LinkedTaskID,
	}
	if err := s.store.InsertDiaryEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleDeleteDiary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteDiaryEntry(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- tasks ---

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		tasks, err := s.store.IncompleteTasks(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if tasks == nil {
			tasks = []*store.CalendarTask{}
		}
		writeJSON(w, http.StatusOK, tasks)
		return
	}

	date, err := parseDay(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	tasks, err := s.store.TasksForDate(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tasks == nil {
		tasks = []*store.CalendarTask{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleAddCustomTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Date  string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}

	date, err := parseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	task := &store.CalendarTask{
		Type:    store.TaskCustom,
		Title:   req.Title,
		DueDate: date,
	}
	if err := s.store.InsertTask(r.Context(), task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	err = s.completer.Toggle(r.Context(), id, req.Completed)
	switch {
	case errors.Is(err, care.ErrNotEditable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, care.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleDeleteTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids required")
		return
	}
	if err := s.completer.Delete(r.Context(), req.IDs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- home, refresh, species ---

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	plants, err := s.store.NeedsAttentionPlants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plants == nil {
		plants = []*store.Plant{}
	}

	summary, weatherErr := s.worker.LastWeather()
	writeJSON(w, http.StatusOK, map[string]any{
		"weather":         summary,
		"weather_error":   weatherErr,
		"needs_attention": plants,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.worker.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *Server) handleSpeciesSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}

	results, err := s.wiki.Search(r.Context(), q, 5)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("species search failed: %v", err))
		return
	}

	type speciesHit struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Image   string `json:"image,omitempty"`
	}
	hits := make([]speciesHit, 0, len(results))
	for _, res := range results {
		hit := speciesHit{Title: res.Title, Snippet: res.Snippet}
		if img, err := s.wiki.PageImage(r.Context(), res.Title); err == nil {
			hit.Image = img
		}
		hits = append(hits, hit)
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) handleSpeciesSummary(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}

	sum, err := s.wiki.Summary(r.Context(), title)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("species summary failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
