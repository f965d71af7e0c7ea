package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type generationRecordView struct {
	entity.DbGenerationRecord
	OutputURLs []string `json:"output_urls"`
}

func (h *HTTPHandler) recordView(record entity.DbGenerationRecord) generationRecordView {
	view := generationRecordView{DbGenerationRecord: record}
	for _, key := range record.OutputAssets {
		if url := h.publicURL(key); url != "" {
			view.OutputURLs = append(view.OutputURLs, url)
		}
	}
	return view
}

// ListGenerationRecords handles GET /records.
func (h *HTTPHandler) ListGenerationRecords(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusOK, gin.H{"records": []generationRecordView{}, "meta": entity.Meta{}})
		return
	}

	query := entity.GenerationRecordQuery{
		Kind:   strings.TrimSpace(c.Query("kind")),
		Result: strings.TrimSpace(c.Query("result")),
	}
	if page, err := strconv.ParseInt(c.Query("page"), 10, 64); err == nil {
		query.Page = page
	}
	if pageSize, err := strconv.ParseInt(c.Query("page_size"), 10, 64); err == nil {
		query.PageSize = pageSize
	}

	records, meta, err := h.repo.ListGenerationRecords(c.Request.Context(), &query)
	if err != nil {
		logrus.WithError(err).Error("failed to list generation records")
		InternalError(c, "failed to load generation records")
		return
	}

	views := make([]generationRecordView, 0, len(records))
	for _, record := range records {
		views = append(views, h.recordView(record))
	}
	c.JSON(http.StatusOK, gin.H{"records": views, "meta": meta})
}

// GetGenerationRecord handles GET /records/:id.
func (h *HTTPHandler) GetGenerationRecord(c *gin.Context) {
	if h.repo == nil {
		NotFound(c, "record not found")
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		NotFound(c, "record not found")
		return
	}

	record, err := h.repo.GetGenerationRecord(c.Request.Context(), uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			NotFound(c, "record not found")
			return
		}
		logrus.WithError(err).Error("failed to load generation record")
		InternalError(c, "failed to load generation record")
		return
	}
	c.JSON(http.StatusOK, h.recordView(*record))
}

// DeleteGenerationRecord handles DELETE /records/:id.
func (h *HTTPHandler) DeleteGenerationRecord(c *gin.Context) {
	if h.repo == nil {
		NotFound(c, "record not found")
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		NotFound(c, "record not found")
		return
	}

	if err := h.repo.DeleteGenerationRecord(c.Request.Context(), uint(id)); err != nil {
		if err == gorm.ErrRecordNotFound {
			NotFound(c, "record not found")
			return
		}
		logrus.WithError(err).Error("failed to delete generation record")
		InternalError(c, "failed to delete generation record")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
