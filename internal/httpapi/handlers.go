package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harshag68/AgentDevelopment/internal/blob"
	"github.com/harshag68/AgentDevelopment/internal/logger"
	"github.com/harshag68/AgentDevelopment/internal/store"
)

type ManualHandler struct {
	store         ManualStore
	log           *logger.Logger
	catalogDriver string
}

func (h *ManualHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"catalog": h.catalogDriver,
		"blob":    h.store.BlobDriver(),
	}
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.Warn("health check failed", "error", err)
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// Search never fails; backend errors surface as an empty list.
func (h *ManualHandler) Search(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": h.store.Search(c.Request.Context(), c.Query("q"))})
}

func (h *ManualHandler) Get(c *gin.Context) {
	id := c.Param("id")
	m, ok, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found", "manual_id": id})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *ManualHandler) Save(c *gin.Context) {
	var in map[string]any
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if in == nil {
		respondError(c, http.StatusBadRequest, "invalid_body", errors.New("body must be a JSON object"))
		return
	}
	res, err := h.store.SaveMap(c.Request.Context(), in)
	if err != nil {
		code := "save_failed"
		var perr *store.PersistError
		if errors.As(err, &perr) {
			code = "save_failed_" + string(perr.Stage)
		}
		respondError(c, http.StatusInternalServerError, code, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Document streams the archived rendering of a manual version.
func (h *ManualHandler) Document(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		respondError(c, http.StatusBadRequest, "invalid_version", errors.New("version must be a positive integer"))
		return
	}
	info, rc, err := h.store.Document(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			respondError(c, http.StatusNotFound, "not_found", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "document_failed", err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, nil)
}
