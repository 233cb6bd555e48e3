package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/logging"
	"github.com/dmitrijs2005/gopfolio/internal/server/allocation"
	"github.com/dmitrijs2005/gopfolio/internal/server/guard"
	"github.com/go-playground/validator/v10"
)

const maxJSONBody = 1 << 20

// commonResponse is the envelope for outcomes that carry no payload.
type commonResponse struct {
	IsSuccess bool              `json:"isSuccess"`
	Message   string            `json:"message,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type lockedResponse struct {
	commonResponse
	RemainingSeconds int64 `json:"remainingSeconds"`
}

type invalidCredentialsResponse struct {
	commonResponse
	AttemptsLeft int `json:"attemptsLeft"`
}

type imbalanceResponse struct {
	commonResponse
	DeclaredInvested string `json:"declaredInvested"`
	DeclaredGoals    string `json:"declaredGoals"`
	SumInvested      string `json:"sumInvested"`
	SumGoals         string `json:"sumGoals"`
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, commonResponse{IsSuccess: code < 400, Message: msg})
}

// writeError maps service errors onto status codes. Storage causes are
// logged and never returned.
func writeError(ctx context.Context, w http.ResponseWriter, logger logging.Logger, err error) {
	var (
		locked    *guard.LockedError
		invalid   *guard.InvalidCredentialsError
		imbalance *allocation.ImbalanceError
		vErrs     validator.ValidationErrors
	)

	switch {
	case errors.As(err, &locked):
		secs := int64(math.Ceil(locked.Remaining.Seconds()))
		writeJSON(w, http.StatusLocked, lockedResponse{
			commonResponse:   commonResponse{Message: fmt.Sprintf("account is locked, try again in %d seconds", secs)},
			RemainingSeconds: secs,
		})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnauthorized, invalidCredentialsResponse{
			commonResponse: commonResponse{Message: fmt.Sprintf("invalid credentials, %d attempts left before the account gets locked", invalid.AttemptsLeft)},
			AttemptsLeft:   invalid.AttemptsLeft,
		})
	case errors.As(err, &imbalance):
		writeJSON(w, http.StatusBadRequest, imbalanceResponse{
			commonResponse:   commonResponse{Message: common.ErrImbalancedAllocation.Error()},
			DeclaredInvested: imbalance.DeclaredInvested.String(),
			DeclaredGoals:    imbalance.DeclaredGoals.String(),
			SumInvested:      imbalance.SumInvested.String(),
			SumGoals:         imbalance.SumGoals.String(),
		})
	case errors.As(err, &vErrs):
		writeJSON(w, http.StatusBadRequest, commonResponse{
			Message: common.ErrorValidation.Error(),
			Errors:  validationErrors(vErrs),
		})
	case errors.Is(err, common.ErrNotAuthorized), errors.Is(err, common.ErrorUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "not authorized")
	case errors.Is(err, common.ErrInvalidSelection),
		errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrorInvalidKind):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeMessage(w, http.StatusConflict, "already exists")
	default:
		logger.Error(ctx, "request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func validationErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Namespace()] = fe.Tag()
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON reads a size-limited JSON body into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", common.ErrorValidation, err)
	}
	return validate.Struct(dst)
}
