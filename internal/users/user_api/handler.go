package user_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-scanner/internal/logger"
	"ms-scanner/internal/models"
	users "ms-scanner/internal/users/service"
	"ms-scanner/internal/utils"
)

type UserService interface {
	ListUsers() ([]models.UserView, error)
	GetUser(id int64) (*models.UserView, error)
	UpdateUser(id int64, update models.UserUpdate) (*models.UserView, error)
	BadgeQR(id int64) ([]byte, error)
}

type Handler struct {
	UserService UserService
	Logger      *logger.Logger
}

func NewHandler(userService UserService, log *logger.Logger) *Handler {
	return &Handler{UserService: userService, Logger: log}
}

// userID parses the {id} path param. A non-integer id behaves like an
// unknown user.
func userID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "ListUsers: received request")

	views, err := h.UserService.ListUsers()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUsers: failed to list users: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.Logger.Debug("API", fmt.Sprintf("ListUsers: returning %d users", len(views)))
	if err := utils.WriteJSON(w, http.StatusOK, views); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUsers: failed to encode response: %v", err))
	}
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	h.Logger.Info("API", fmt.Sprintf("GetUser: id=%d", id))

	view, err := h.UserService.GetUser(id)
	if err != nil {
		h.writeUserError(w, "GetUser", err)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, view); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetUser: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	h.Logger.Info("API", fmt.Sprintf("UpdateUser: id=%d", id))

	// An empty body is a valid no-field update; the user lookup still runs
	// so an unknown id answers 404 rather than 400.
	var update models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil && !errors.Is(err, io.EOF) {
		h.Logger.Error("API", fmt.Sprintf("UpdateUser: failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.UserService.UpdateUser(id, update)
	if err != nil {
		h.writeUserError(w, "UpdateUser", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("UpdateUser: user %d updated successfully", id))
	if err := utils.WriteJSON(w, http.StatusOK, view); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateUser: failed to encode response: %v", err))
	}
}

func (h *Handler) GetBadge(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	h.Logger.Info("API", fmt.Sprintf("GetBadge: id=%d", id))

	png, err := h.UserService.BadgeQR(id)
	if err != nil {
		if errors.Is(err, users.ErrNoBadgeCode) {
			utils.WriteError(w, http.StatusNotFound, "User has no badge code")
			return
		}
		h.writeUserError(w, "GetBadge", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBadge: failed to write response: %v", err))
	}
}

func (h *Handler) writeUserError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, users.ErrUserNotFound) {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
}
