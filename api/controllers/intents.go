package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dice-gateway/bape/api/responses"
	"github.com/dice-gateway/bape/api/validators"
	"github.com/dice-gateway/bape/internal/intents"
	"github.com/dice-gateway/bape/pkg/config"
	pkgerrors "github.com/dice-gateway/bape/pkg/errors"
	"github.com/dice-gateway/bape/pkg/logger"
)

const maxDescriptionLen = 255

type createIntentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// CreateIntent persists a new payment link.
func CreateIntent(svc intents.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "intents service unavailable"))
			return
		}

		var body createIntentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		description := validators.SanitizeString(body.Description, maxDescriptionLen)
		intent, err := svc.Create(r.Context(), body.Amount, description)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, intents.FromModel(intent, checkoutURL(cfg, intent.ID)))
	}
}

// ListIntents returns every payment link, newest first.
func ListIntents(svc intents.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "intents service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]intents.IntentDTO, 0, len(list))
		for i := range list {
			dtos = append(dtos, *intents.FromModel(&list[i], checkoutURL(cfg, list[i].ID)))
		}
		responses.WriteSuccess(w, dtos)
	}
}

// GetIntent returns a single payment link by id.
func GetIntent(svc intents.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "intents service unavailable"))
			return
		}

		id, err := parseIntentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, intents.FromModel(intent, checkoutURL(cfg, intent.ID)))
	}
}

// DeleteIntent removes a payment link.
func DeleteIntent(svc intents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "intents service unavailable"))
			return
		}

		id, err := parseIntentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func parseIntentID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "intentID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "intent id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid intent id")
	}
	return id, nil
}

func checkoutURL(cfg *config.Config, id uuid.UUID) string {
	if cfg == nil {
		return ""
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.App.PublicURL), "/")
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/checkout/%s", base, id)
}
