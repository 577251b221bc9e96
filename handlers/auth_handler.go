package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"assetflow/middleware"
	"assetflow/models"
	"assetflow/store"
	"assetflow/utils"
	"assetflow/validation"
)

type authResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user"`
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// compareDummy spends the same bcrypt work as a real check so unknown emails
// cannot be told apart by timing.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = utils.HashPassword("assetflow-dummy-password")
	})
	utils.CheckPasswordHash(password, dummyHash)
}

// Register creates an account and signs the caller in. Only the very first
// account may choose the admin role.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in validation.RegisterInput
	if err := utils.ParseJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := validation.ValidateRegister(in)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if in.Role == models.RoleAdmin {
		n, err := h.Users.Count(ctx)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		if n > 0 {
			utils.RespondWithError(w, http.StatusForbidden, "Admin accounts can only be created by the first user")
			return
		}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	user := &models.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: in.Role}
	if err := h.Users.Create(ctx, user); err != nil {
		h.fail(w, r, err, "", "User already exists with this email")
		return
	}

	token, err := h.Tokens.GenerateJWT(user.ID.Hex(), user.Name, user.Role)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.Logger.Info("User registered", zap.String("userId", user.ID.Hex()), zap.String("role", user.Role))
	utils.RespondWithJSON(w, http.StatusCreated, authResponse{Success: true, Token: token, User: user})

	ctx = middleware.WithUser(ctx, middleware.AuthUser{ID: user.ID.Hex(), Name: user.Name, Email: user.Email, Role: user.Role})
	h.record(ctx, "user_register", "user", "", user.ID, map[string]interface{}{"role": user.Role})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in validation.LoginInput
	if err := utils.ParseJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := validation.ValidateLogin(in)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.Users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			compareDummy(in.Password)
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.internalError(w, r, err)
		return
	}
	if !utils.CheckPasswordHash(in.Password, user.PasswordHash) {
		h.Logger.Info("Failed login attempt", zap.String("userId", user.ID.Hex()))
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.Tokens.GenerateJWT(user.ID.Hex(), user.Name, user.Role)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, authResponse{Success: true, Token: token, User: user})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authUser, _ := middleware.UserFromContext(r.Context())
	id, err := primitive.ObjectIDFromHex(authUser.ID)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.Users.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err, "User not found", "")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, authResponse{Success: true, User: user})
}

// Logout exists for clients that expect it. Tokens are stateless, so the
// client simply discards its copy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}
