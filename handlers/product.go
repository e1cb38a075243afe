package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JonFloz/P3-31899312/internal/products"
	"github.com/JonFloz/P3-31899312/pkg/ctxmanage"
	"github.com/JonFloz/P3-31899312/pkg/jsend"
	"github.com/JonFloz/P3-31899312/pkg/logkey"
)

// ListMangas handles the catalog search. Filter validation errors are
// accumulated and returned together, not one at a time.
func (h *Handler) ListMangas(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	raw := products.RawFilters{
		Category:    c.Query("category"),
		Tags:        c.Query("tags"),
		PriceMin:    c.Query("price_min"),
		PriceMax:    c.Query("price_max"),
		Search:      c.Query("search"),
		Author:      c.Query("author"),
		Genre:       c.Query("genre"),
		Series:      c.Query("series"),
		Illustrator: c.Query("illustrator"),
		TomoNumber:  c.Query("tomoNumber"),
		Page:        c.Query("page"),
		Limit:       c.Query("limit"),
	}

	query, err := products.BuildQuery(raw)
	if err != nil {
		var verr *products.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, jsend.FailData(gin.H{"errors": verr.Errors}))
			return
		}
		c.JSON(http.StatusBadRequest, jsend.Fail(err.Error()))
		return
	}

	items, total, err := h.p.SearchAdvanced(c.Request.Context(), query)
	if err != nil {
		slog.Error("failed to search products",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Error, err.Error()),
		)
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to search products"))
		return
	}

	page := query.Applied.Pagination.Page
	limit := query.Applied.Pagination.Limit
	totalPages := (total + int64(limit) - 1) / int64(limit)
	c.JSON(http.StatusOK, jsend.Success(gin.H{
		"items": items,
		"meta": gin.H{
			"total":          total,
			"page":           page,
			"limit":          limit,
			"totalPages":     totalPages,
			"filtersApplied": query.Applied,
		},
	}))
}

func (h *Handler) GetManga(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, jsend.Fail("product id must be a positive integer"))
		return
	}

	m, err := h.p.FindByIDWithRelations(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, jsend.Fail("product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to fetch product"))
		return
	}
	c.JSON(http.StatusOK, jsend.Success(gin.H{"manga": m}))
}

// PublicMangaView serves /p/:composite where composite is "<id>-<slug>".
// A stale or misspelled slug redirects permanently to the canonical URL,
// so old links keep working after a rename.
func (h *Handler) PublicMangaView(c *gin.Context) {
	composite := c.Param("composite")

	idPart := composite
	slugPart := ""
	if i := strings.Index(composite, "-"); i >= 0 {
		idPart = composite[:i]
		slugPart = composite[i+1:]
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		// No numeric prefix: try resolving the whole value as a slug.
		m, slugErr := h.p.FindBySlug(c.Request.Context(), composite)
		if slugErr != nil {
			c.JSON(http.StatusNotFound, jsend.Fail("product not found"))
			return
		}
		c.Redirect(http.StatusMovedPermanently, canonicalProductPath(c, m.ID, m.Slug))
		return
	}

	m, err := h.p.FindByIDWithRelations(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, jsend.Fail("product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to fetch product"))
		return
	}

	if slugPart != m.Slug {
		c.Redirect(http.StatusMovedPermanently, canonicalProductPath(c, m.ID, m.Slug))
		return
	}
	c.JSON(http.StatusOK, jsend.Success(gin.H{"manga": m}))
}

func canonicalProductPath(c *gin.Context, id int64, slug string) string {
	base := strings.TrimSuffix(c.Request.URL.Path, "/p/"+c.Param("composite"))
	return fmt.Sprintf("%s/p/%d-%s", base, id, slug)
}

func (h *Handler) CreateManga(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var np products.NewManga
	if err := c.ShouldBindJSON(&np); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("invalid request body"))
		return
	}
	if err := h.validate.Struct(np); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("name, author and a tomoNumber of at least 1 are required"))
		return
	}

	m, err := h.p.InsertManga(c.Request.Context(), np)
	if err != nil {
		h.writeMangaError(c, traceId, err, "failed to create product")
		return
	}
	c.JSON(http.StatusCreated, jsend.Success(gin.H{"manga": m}))
}

func (h *Handler) UpdateManga(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, jsend.Fail("product id must be a positive integer"))
		return
	}

	var np products.NewManga
	if err := c.ShouldBindJSON(&np); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("invalid request body"))
		return
	}
	if err := h.validate.Struct(np); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("name, author and a tomoNumber of at least 1 are required"))
		return
	}

	m, err := h.p.UpdateManga(c.Request.Context(), id, np)
	if err != nil {
		h.writeMangaError(c, traceId, err, "failed to update product")
		return
	}
	c.JSON(http.StatusOK, jsend.Success(gin.H{"manga": m}))
}

func (h *Handler) DeleteManga(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, jsend.Fail("product id must be a positive integer"))
		return
	}

	if err := h.p.DeleteManga(c.Request.Context(), id); err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, jsend.Fail("product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to delete product"))
		return
	}
	c.JSON(http.StatusOK, jsend.Success(gin.H{"message": "product deleted"}))
}

func (h *Handler) writeMangaError(c *gin.Context, traceId string, err error, fallback string) {
	switch {
	case errors.Is(err, products.ErrNotFound):
		c.JSON(http.StatusNotFound, jsend.Fail("product not found"))
	case errors.Is(err, products.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, jsend.Fail("category not found"))
	case errors.Is(err, products.ErrTagNotFound):
		c.JSON(http.StatusNotFound, jsend.Fail("one or more tags not found"))
	default:
		slog.Error(fallback,
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Error, err.Error()),
		)
		c.JSON(http.StatusInternalServerError, jsend.Error(fallback))
	}
}
