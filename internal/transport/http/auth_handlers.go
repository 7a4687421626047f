package http

import (
	"net/http"

	"gameed/internal/app"
	"github.com/gin-gonic/gin"
)

func (h *Handler) register(c *gin.Context) {
	var in app.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, "Error in registration", err)
		return
	}
	session, err := h.svc.Auth.Register(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "Error in registration", err)
		return
	}
	ok(c, http.StatusCreated, "User registered successfully", gin.H{
		"token": session.Token,
		"user":  session.User,
	})
}

func (h *Handler) login(c *gin.Context) {
	var in app.LoginInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, "Error in login", err)
		return
	}
	session, err := h.svc.Auth.Login(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "Error in login", err)
		return
	}
	ok(c, http.StatusOK, "Login successful", gin.H{
		"token": session.Token,
		"user":  session.User,
	})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.svc.Auth.Me(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, "Error fetching user data", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"user": user})
}
