package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/faqstudio/backend/internal/domain/catalog"
)

// Handler wires the HTTP transport to the catalog services.
type Handler struct {
	detector    *catalog.Detector
	coordinator *catalog.Coordinator
	repair      *catalog.Repair
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(detector *catalog.Detector, coordinator *catalog.Coordinator, repair *catalog.Repair, logger *slog.Logger) *Handler {
	return &Handler{
		detector:    detector,
		coordinator: coordinator,
		repair:      repair,
		logger:      logger.With("component", "http.handler"),
	}
}

type checkDuplicateForm struct {
	Question string `form:"question" json:"question"`
}

// CheckDuplicate scores a candidate question against the nearest canonical
// entries.
func (h *Handler) CheckDuplicate(c *gin.Context) {
	var form checkDuplicateForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	req := catalog.CheckRequest{Question: form.Question}
	if raw := c.Query("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k < 1 || k > 10 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "k must be an integer within [1, 10]", err))
			return
		}
		req.K = k
	}
	if raw := c.Query("th"); raw != "" {
		th, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "th must be a number", err))
			return
		}
		req.Threshold = &th
	}

	report, err := h.detector.Check(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err, "check_failed"))
		return
	}
	c.JSON(http.StatusOK, report)
}

type addForm struct {
	Question  string `form:"question" json:"question"`
	Answer    string `form:"answer" json:"answer"`
	Keywords  string `form:"keywords" json:"keywords"`
	Category  string `form:"category" json:"category"`
	CreatedBy string `form:"created_by" json:"created_by"`
}

// Add accepts a curator submission.
func (h *Handler) Add(c *gin.Context) {
	var form addForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	result, err := h.coordinator.Add(c.Request.Context(), catalog.AddRequest{
		Question:  form.Question,
		Answer:    form.Answer,
		Keywords:  form.Keywords,
		Category:  form.Category,
		CreatedBy: form.CreatedBy,
	})
	if err != nil {
		abortWithError(c, fromAppError(err, "add_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": result.ID})
}

// Delete removes an entry from every store.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.coordinator.Delete(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, fromAppError(err, "delete_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted_id": result.DeletedID, "json_updated": result.ExportLogUpdated})
}

// List pages through entries, newest first.
func (h *Handler) List(c *gin.Context) {
	entries, err := h.coordinator.List(c.Request.Context(), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		abortWithError(c, fromAppError(err, "list_failed"))
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

// GetQuestion fetches a single entry.
func (h *Handler) GetQuestion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entry, err := h.coordinator.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, fromAppError(err, "get_failed"))
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Search matches a text query against the entry fields.
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	entries, err := h.coordinator.Search(c.Request.Context(), query, queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		abortWithError(c, fromAppError(err, "search_failed"))
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

// Categories returns the registry content.
func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.coordinator.Categories(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err, "categories_failed"))
		return
	}
	c.JSON(http.StatusOK, categories)
}

// RemoveCategory drops a label from the registry. Entries keep their
// category text; the reference is soft.
func (h *Handler) RemoveCategory(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "category name is required", nil))
		return
	}
	removed, err := h.coordinator.RemoveCategory(c.Request.Context(), name)
	if err != nil {
		abortWithError(c, fromAppError(err, "categories_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "removed": removed})
}

// StatsCategories returns per-category entry counts.
func (h *Handler) StatsCategories(c *gin.Context) {
	counts, err := h.coordinator.CategoryStats(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err, "stats_failed"))
		return
	}
	c.JSON(http.StatusOK, counts)
}

// StatsTotal returns the total entry count.
func (h *Handler) StatsTotal(c *gin.Context) {
	total, err := h.coordinator.TotalStats(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err, "stats_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

// StatsRecent counts entries created in the last N days.
func (h *Handler) StatsRecent(c *gin.Context) {
	days := queryInt(c, "days", 7)
	count, err := h.coordinator.RecentStats(c.Request.Context(), days)
	if err != nil {
		abortWithError(c, fromAppError(err, "stats_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"recent_count": count, "days": days})
}

// StatsByDate returns per-day entry counts.
func (h *Handler) StatsByDate(c *gin.Context) {
	counts, err := h.coordinator.DateStats(c.Request.Context(), queryInt(c, "limit", 30))
	if err != nil {
		abortWithError(c, fromAppError(err, "stats_failed"))
		return
	}
	c.JSON(http.StatusOK, counts)
}

// StatsTrending returns the most frequently duplicate-checked questions.
func (h *Handler) StatsTrending(c *gin.Context) {
	trending, err := h.detector.TopChecked(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		abortWithError(c, fromAppError(err, "stats_failed"))
		return
	}
	if trending == nil {
		trending = []catalog.TrendingCheck{}
	}
	c.JSON(http.StatusOK, trending)
}

// Replay re-inserts export-log records into the canonical store.
func (h *Handler) Replay(c *gin.Context) {
	report, err := h.repair.RestoreCanonical(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err, "replay_failed"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// Reindex rebuilds the secondary index from canonical entries.
func (h *Handler) Reindex(c *gin.Context) {
	report, err := h.repair.RebuildIndex(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err, "reindex_failed"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// Health reports liveness and the mirror retry queue depth.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"service":            "faq-studio",
		"pending_mirror_ops": h.coordinator.PendingMirrorOps(),
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "id must be a positive integer", err))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
