package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/dmitrijs2005/gopfolio/internal/server/services"
)

// loginRequest leaves Password unvalidated: an empty credential is a wrong
// credential and must reach the login guard to be counted.
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
}

type loginResponse struct {
	commonResponse
	AccessToken string         `json:"accessToken"`
	Profile     models.Profile `json:"profile"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		commonResponse: commonResponse{IsSuccess: true, Message: "login successful"},
		AccessToken:    res.AccessToken,
		Profile:        res.Profile,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "logged out successfully")
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := AccountIDFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, h.logger, common.ErrNotAuthorized)
		return
	}

	p, err := h.auth.GetProfile(r.Context(), accountID)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// multipart overhead allowed on top of the photo itself
const profileFormSlack = 1 << 20

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := AccountIDFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, h.logger, common.ErrNotAuthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoSize+profileFormSlack)
	if err := r.ParseMultipartForm(services.MaxPhotoSize + profileFormSlack); err != nil {
		writeError(r.Context(), w, h.logger, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}

	upd := models.ProfileUpdate{
		Email:  r.FormValue("email"),
		Mobile: r.FormValue("mobile"),
	}

	photo, err := readPhoto(r)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	upd.Photo = photo

	p, err := h.auth.UpdateProfile(r.Context(), accountID, upd)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// readPhoto returns nil when the form carries no profilePhoto part.
func readPhoto(r *http.Request) (*models.Photo, error) {
	f, hdr, err := r.FormFile("profilePhoto")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxPhotoSize+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}

	ct := hdr.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return &models.Photo{ContentType: ct, Data: data}, nil
}
