package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JonFloz/P3-31899312/internal/users"
	"github.com/JonFloz/P3-31899312/pkg/ctxmanage"
	"github.com/JonFloz/P3-31899312/pkg/jsend"
	"github.com/JonFloz/P3-31899312/pkg/logkey"
)

const tokenTTL = time.Hour

func (h *Handler) Signup(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("invalid request body"))
		return
	}
	if err := h.validate.Struct(newUser); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("name, valid email and a password of at least 8 characters are required"))
		return
	}

	user, err := h.u.InsertUser(c.Request.Context(), newUser)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			c.JSON(http.StatusConflict, jsend.Fail("email is already registered"))
			return
		}
		slog.Error("failed to create user",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Error, err.Error()),
		)
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to create user"))
		return
	}

	c.JSON(http.StatusCreated, jsend.Success(gin.H{"user": user}))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("email and password are required"))
		return
	}

	user, err := h.u.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, jsend.Fail("invalid email or password"))
			return
		}
		slog.Error("failed to authenticate user",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Error, err.Error()),
		)
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to authenticate"))
		return
	}

	token, err := h.authKeys.GenerateToken(user.ID, tokenTTL)
	if err != nil {
		slog.Error("failed to sign token",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Error, err.Error()),
		)
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, jsend.Success(gin.H{"token": token, "user": user}))
}
