package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/account-api/internal/api/shared"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/platform/metrics"
	"github.com/phrazzld/account-api/internal/service"
	"github.com/phrazzld/account-api/internal/service/auth"
)

// Operation labels recorded with each account request.
const (
	OperationRegister = "register"
	OperationLogin    = "login"
	OperationGet      = "get"
	OperationEdit     = "edit"
)

// UserIDParam is the chi path parameter holding the target account ID.
const UserIDParam = "userId"

// AccountHandler serves the /api/users endpoints.
type AccountHandler struct {
	accounts  service.AccountService
	resolver  *auth.Resolver
	sanitizer *TextSanitizer
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewAccountHandler creates an AccountHandler. A nil recorder disables metrics.
func NewAccountHandler(
	accounts service.AccountService,
	resolver *auth.Resolver,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *AccountHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AccountHandler")
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &AccountHandler{
		accounts:  accounts,
		resolver:  resolver,
		sanitizer: NewTextSanitizer(),
		metrics:   recorder,
		logger:    logger.With(slog.String("component", "account_handler")),
	}
}

// Register handles POST /api/users/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decodeAndValidate(w, r, OperationRegister, &req, func() {
		req.FullName = h.sanitizer.Sanitize(req.FullName)
		req.PhoneNumber = h.sanitizer.Sanitize(req.PhoneNumber)
	}) {
		return
	}

	result, err := h.accounts.Register(r.Context(), service.RegisterInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
	})
	if err != nil {
		h.fail(w, r, OperationRegister, err)
		return
	}

	h.metrics.RecordAuthEvent(OperationRegister, metrics.OutcomeSuccess)
	w.Header().Set("Location", "/api/users/"+result.Profile.ID.String())
	shared.RespondWithJSON(w, r, http.StatusCreated, authResultToResponse(result))
}

// Login handles POST /api/users/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, OperationLogin, &req, nil) {
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, OperationLogin, err)
		return
	}

	h.metrics.RecordAuthEvent(OperationLogin, metrics.OutcomeSuccess)
	shared.RespondWithJSON(w, r, http.StatusOK, authResultToResponse(result))
}

// GetByID handles GET /api/users/{userId}.
func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, UserIDParam)
	if err != nil {
		h.fail(w, r, OperationGet, err)
		return
	}

	profile, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, OperationGet, err)
		return
	}

	h.metrics.RecordAuthEvent(OperationGet, metrics.OutcomeSuccess)
	shared.RespondWithJSON(w, r, http.StatusOK, profileToResponse(profile))
}

// Edit handles PUT /api/users/{userId}. The requester is the subject of the
// bearer token validated by the auth middleware.
func (h *AccountHandler) Edit(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	targetID, err := getPathUUID(r, UserIDParam)
	if err != nil {
		h.fail(w, r, OperationEdit, err)
		return
	}

	requesterID, err := h.resolver.ResolveAccountID(r.Context())
	if err != nil {
		log.Warn("edit request without a usable subject", slog.String("error", err.Error()))
		h.fail(w, r, OperationEdit, err)
		return
	}

	var req EditRequest
	if !h.decodeAndValidate(w, r, OperationEdit, &req, func() {
		req.FullName = h.sanitizer.Sanitize(req.FullName)
	}) {
		return
	}

	profile, err := h.accounts.Edit(r.Context(), service.EditInput{FullName: req.FullName}, requesterID, targetID)
	if err != nil {
		h.fail(w, r, OperationEdit, err)
		return
	}

	h.metrics.RecordAuthEvent(OperationEdit, metrics.OutcomeSuccess)
	shared.RespondWithJSON(w, r, http.StatusOK, profileToResponse(profile))
}

// decodeAndValidate decodes the body into req, applies normalize and runs
// the validator. It writes a 400 and returns false on failure.
func (h *AccountHandler) decodeAndValidate(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	req any,
	normalize func(),
) bool {
	if err := shared.DecodeJSON(w, r, req); err != nil {
		h.metrics.RecordAuthEvent(operation, metrics.OutcomeInvalid)
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}

	if normalize != nil {
		normalize()
	}

	if err := shared.ValidateRequest(req); err != nil {
		h.metrics.RecordAuthEvent(operation, metrics.OutcomeInvalid)
		var opts []shared.ResponseOption
		if field := ValidationField(err); field != "" {
			opts = append(opts, shared.WithField(field))
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err, opts...)
		return false
	}
	return true
}

func (h *AccountHandler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	h.metrics.RecordAuthEvent(operation, outcomeFor(err))
	HandleAPIError(w, r, err)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, service.ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, service.ErrLocked):
		return metrics.OutcomeLocked
	case errors.Is(err, service.ErrForbidden):
		return metrics.OutcomeForbidden
	case errors.Is(err, service.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrInvalidPathParam):
		return metrics.OutcomeInvalid
	}
	if MapErrorToStatusCode(err) == http.StatusUnauthorized {
		return metrics.OutcomeUnauthorized
	}
	return metrics.OutcomeError
}
