package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JonFloz/P3-31899312/internal/products"
	"github.com/JonFloz/P3-31899312/pkg/ctxmanage"
	"github.com/JonFloz/P3-31899312/pkg/jsend"
	"github.com/JonFloz/P3-31899312/pkg/logkey"
)

func (h *Handler) ListTags(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	tags, err := h.p.ListTags(c.Request.Context())
	if err != nil {
		slog.Error("failed to list tags",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Error, err.Error()),
		)
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to list tags"))
		return
	}
	c.JSON(http.StatusOK, jsend.Success(gin.H{"tags": tags}))
}

func (h *Handler) CreateTag(c *gin.Context) {
	var nt products.NewTag
	if err := c.ShouldBindJSON(&nt); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("invalid request body"))
		return
	}
	if err := h.validate.Struct(nt); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("tag name is required and must not exceed 50 characters"))
		return
	}

	tag, err := h.p.InsertTag(c.Request.Context(), nt)
	if err != nil {
		if errors.Is(err, products.ErrTagNameTaken) {
			c.JSON(http.StatusConflict, jsend.Fail("a tag with this name already exists"))
			return
		}
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to create tag"))
		return
	}
	c.JSON(http.StatusCreated, jsend.Success(gin.H{"tag": tag}))
}

func (h *Handler) UpdateTag(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, jsend.Fail("tag id must be a positive integer"))
		return
	}

	var nt products.NewTag
	if err := c.ShouldBindJSON(&nt); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("invalid request body"))
		return
	}
	if err := h.validate.Struct(nt); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("tag name is required and must not exceed 50 characters"))
		return
	}

	tag, err := h.p.UpdateTag(c.Request.Context(), id, nt)
	if err != nil {
		switch {
		case errors.Is(err, products.ErrTagNotFound):
			c.JSON(http.StatusNotFound, jsend.Fail("tag not found"))
		case errors.Is(err, products.ErrTagNameTaken):
			c.JSON(http.StatusConflict, jsend.Fail("a tag with this name already exists"))
		default:
			c.JSON(http.StatusInternalServerError, jsend.Error("failed to update tag"))
		}
		return
	}
	c.JSON(http.StatusOK, jsend.Success(gin.H{"tag": tag}))
}

func (h *Handler) DeleteTag(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, jsend.Fail("tag id must be a positive integer"))
		return
	}

	if err := h.p.DeleteTag(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, products.ErrTagNotFound):
			c.JSON(http.StatusNotFound, jsend.Fail("tag not found"))
		case errors.Is(err, products.ErrTagInUse):
			c.JSON(http.StatusConflict, jsend.Fail("tag is still referenced by products"))
		default:
			c.JSON(http.StatusInternalServerError, jsend.Error("failed to delete tag"))
		}
		return
	}
	c.JSON(http.StatusOK, jsend.Success(gin.H{"message": "tag deleted"}))
}
