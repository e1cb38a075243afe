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

func (h *Handler) ListCategories(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	categories, err := h.p.ListCategories(c.Request.Context())
	if err != nil {
		slog.Error("failed to list categories",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Error, err.Error()),
		)
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to list categories"))
		return
	}
	c.JSON(http.StatusOK, jsend.Success(gin.H{"categories": categories}))
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var nc products.NewCategory
	if err := c.ShouldBindJSON(&nc); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("invalid request body"))
		return
	}
	if err := h.validate.Struct(nc); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("category name is required and must not exceed 50 characters"))
		return
	}

	cat, err := h.p.InsertCategory(c.Request.Context(), nc)
	if err != nil {
		if errors.Is(err, products.ErrCategoryNameTaken) {
			c.JSON(http.StatusConflict, jsend.Fail("a category with this name already exists"))
			return
		}
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to create category"))
		return
	}
	c.JSON(http.StatusCreated, jsend.Success(gin.H{"category": cat}))
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, jsend.Fail("category id must be a positive integer"))
		return
	}

	var nc products.NewCategory
	if err := c.ShouldBindJSON(&nc); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("invalid request body"))
		return
	}
	if err := h.validate.Struct(nc); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("category name is required and must not exceed 50 characters"))
		return
	}

	cat, err := h.p.UpdateCategory(c.Request.Context(), id, nc)
	if err != nil {
		switch {
		case errors.Is(err, products.ErrCategoryNotFound):
			c.JSON(http.StatusNotFound, jsend.Fail("category not found"))
		case errors.Is(err, products.ErrCategoryNameTaken):
			c.JSON(http.StatusConflict, jsend.Fail("a category with this name already exists"))
		default:
			c.JSON(http.StatusInternalServerError, jsend.Error("failed to update category"))
		}
		return
	}
	c.JSON(http.StatusOK, jsend.Success(gin.H{"category": cat}))
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, jsend.Fail("category id must be a positive integer"))
		return
	}

	if err := h.p.DeleteCategory(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, products.ErrCategoryNotFound):
			c.JSON(http.StatusNotFound, jsend.Fail("category not found"))
		case errors.Is(err, products.ErrCategoryInUse):
			c.JSON(http.StatusConflict, jsend.Fail("category is still referenced by products"))
		default:
			c.JSON(http.StatusInternalServerError, jsend.Error("failed to delete category"))
		}
		return
	}
	c.JSON(http.StatusOK, jsend.Success(gin.H{"message": "category deleted"}))
}
