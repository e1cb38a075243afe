package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/JonFloz/P3-31899312/internal/auth"
	"github.com/JonFloz/P3-31899312/internal/orders"
	"github.com/JonFloz/P3-31899312/internal/products"
	"github.com/JonFloz/P3-31899312/internal/users"
	"github.com/JonFloz/P3-31899312/middleware"
	"github.com/JonFloz/P3-31899312/pkg/jsend"
)

type Handler struct {
	u        *users.Conf
	p        *products.Conf
	o        *orders.Service
	validate *validator.Validate
	authKeys *auth.Keys
}

func NewHandler(u *users.Conf, p *products.Conf, o *orders.Service, authKeys *auth.Keys) *Handler {
	return &Handler{
		u:        u,
		p:        p,
		o:        o,
		validate: validator.New(),
		authKeys: authKeys,
	}
}

func API(u *users.Conf, p *products.Conf, o *orders.Service, a *auth.Keys) (*gin.Engine, error) {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := NewHandler(u, p, o, a)
	m, err := middleware.NewMid(a)
	if err != nil {
		return nil, err
	}

	prefix := os.Getenv("SERVICE_ENDPOINT_PREFIX")
	v1 := r.Group(prefix)
	v1.Use(middleware.Logger(), gin.Recovery())
	{
		v1.GET("/ping", h.Ping)
		v1.POST("/register", h.Signup)
		v1.POST("/login", h.Login)

		v1.GET("/mangas", h.ListMangas)
		v1.GET("/mangas/:id", h.GetManga)
		v1.GET("/p/:composite", h.PublicMangaView)
		v1.GET("/categories", h.ListCategories)
		v1.GET("/tags", h.ListTags)
	}

	authed := v1.Group("")
	authed.Use(m.Authentication())
	{
		authed.POST("/mangas", h.CreateManga)
		authed.PUT("/mangas/:id", h.UpdateManga)
		authed.DELETE("/mangas/:id", h.DeleteManga)

		authed.POST("/categories", h.CreateCategory)
		authed.PUT("/categories/:id", h.UpdateCategory)
		authed.DELETE("/categories/:id", h.DeleteCategory)

		authed.POST("/tags", h.CreateTag)
		authed.PUT("/tags/:id", h.UpdateTag)
		authed.DELETE("/tags/:id", h.DeleteTag)

		authed.POST("/orders", h.Checkout)
		authed.GET("/orders", h.GetOrders)
		authed.GET("/orders/:id", h.GetOrderDetail)
	}

	return r, nil
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, jsend.Success(gin.H{"message": "pong"}))
}

// currentClaims pulls the verified claims stored by the authentication
// middleware.
func currentClaims(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	return claims, ok
}
