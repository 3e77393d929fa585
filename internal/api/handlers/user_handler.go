package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zapshift/parcel-delivery/internal/api/dto"
	"github.com/zapshift/parcel-delivery/internal/domain/user"
	"github.com/zapshift/parcel-delivery/pkg/cache"
	"github.com/zapshift/parcel-delivery/pkg/errors"
	"github.com/zapshift/parcel-delivery/pkg/logger"
)

// CreateUser handles POST /users: create-if-absent registration keyed by
// email. Re-posting an existing email is a no-op, not an error.
func (h *Handlers) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.Validation("Invalid request body", err))
		return
	}

	u := &user.User{
		ID:          uuid.New(),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        user.RoleUser,
		CreatedAt:   time.Now(),
	}
	created, err := h.users.CreateIfAbsent(c.Request.Context(), u)
	if err != nil {
		h.respondError(c, errors.Internal("Failed to create user", err))
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{
			"message":    "user already exists",
			"insertedId": nil,
		})
		return
	}

	h.logger.Info("User registered", logger.String("email", u.Email))
	c.JSON(http.StatusCreated, gin.H{"insertedId": u.ID})
}

// SearchUsers handles GET /users (admin): substring match on email or
// display name.
func (h *Handlers) SearchUsers(c *gin.Context) {
	users, err := h.users.Search(c.Request.Context(), c.Query("textSearch"))
	if err != nil {
		h.respondError(c, errors.Internal("Failed to search users", err))
		return
	}
	if users == nil {
		users = []*user.User{}
	}

	c.JSON(http.StatusOK, users)
}

// UpdateUserRole handles PATCH /users/:id/role (admin). The cached role
// for the user's email is invalidated so the change takes effect at once.
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, errors.Validation("Invalid user id", err))
		return
	}

	var req dto.UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.Validation("Invalid request body", err))
		return
	}

	email, err := h.users.UpdateRole(c.Request.Context(), id, user.Role(req.Role))
	if err != nil {
		if err == user.ErrUserNotFound {
			h.respondError(c, errors.ErrUserNotFound)
			return
		}
		h.respondError(c, errors.Internal("Failed to update user role", err))
		return
	}

	if h.redis != nil {
		if err := h.redis.Del(c.Request.Context(), cache.RoleKey(email)).Err(); err != nil {
			h.logger.Warn("Failed to invalidate cached role",
				logger.String("email", email),
				logger.Err(err),
			)
		}
	}

	h.logger.Info("User role updated",
		logger.String("user_id", id.String()),
		logger.String("role", req.Role),
	)
	c.JSON(http.StatusOK, gin.H{"modifiedCount": 1})
}

// GetUserRole handles GET /users/:email/role
func (h *Handlers) GetUserRole(c *gin.Context) {
	email := c.Param("email")
	if email == "" {
		h.respondError(c, errors.Validation("email is required", nil))
		return
	}

	role, err := h.users.GetRoleByEmail(c.Request.Context(), email)
	if err != nil {
		if err == user.ErrUserNotFound {
			h.respondError(c, errors.ErrUserNotFound)
			return
		}
		h.respondError(c, errors.Internal("Failed to load user role", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role})
}
