package user

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/voxaiomni/admin-core/internal/user/entity"
)

const maxSignInBody = 1 << 20

// Handler exposes the sign-in endpoint used by the admin panels.
type Handler struct {
	gate   *Gate
	logger *zap.SugaredLogger
}

func NewHandler(gate *Gate, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{gate: gate, logger: logger}
}

// SignInRequest matches the sign-in form fields.
type SignInRequest struct {
	UserID   string `json:"user_Id"`
	Password string `json:"password"`
}

type SignedInUser struct {
	UserID string      `json:"userId"`
	Role   entity.Role `json:"role"`
}

// SignInResponse carries the outcome; Redirect names the dashboard for the role.
type SignInResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	User     *SignedInUser `json:"user"`
	Redirect string        `json:"redirect,omitempty"`
}

// SignIn accepts a JSON body or an urlencoded form.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSignInBody)

	req, err := decodeSignIn(r)
	if err != nil {
		h.logger.Debugw("invalid signin payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, SignInResponse{Message: rejected("", ReasonInvalidInput).Message()})
		return
	}

	res := h.gate.SignIn(r.Context(), req.UserID, req.Password)
	if !res.Success {
		h.logger.Debugw("signin rejected", "identifier", req.UserID, "reason", res.Reason)
		status := http.StatusUnauthorized
		switch res.Reason {
		case ReasonInvalidInput:
			status = http.StatusBadRequest
		case ReasonStorageUnavailable:
			status = http.StatusServiceUnavailable
		}
		h.writeJSON(w, status, SignInResponse{Message: res.Message()})
		return
	}

	h.logger.Infow("signin accepted", "identifier", res.Identifier, "role", res.Role)
	h.writeJSON(w, http.StatusOK, SignInResponse{
		Success:  true,
		Message:  res.Message(),
		User:     &SignedInUser{UserID: res.Identifier, Role: res.Role},
		Redirect: res.Role.DashboardPath(),
	})
}

func decodeSignIn(r *http.Request) (SignInRequest, error) {
	var req SignInRequest
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxSignInBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return req, err
		}
		req.UserID = r.PostFormValue("user_Id")
		req.Password = r.PostFormValue("password")
		return req, nil
	default:
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
