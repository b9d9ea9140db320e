package controllers

import (
	"net/http"

	"github.com/dice-gateway/bape/api/responses"
	"github.com/dice-gateway/bape/api/validators"
	"github.com/dice-gateway/bape/internal/checkout"
	pkgerrors "github.com/dice-gateway/bape/pkg/errors"
	"github.com/dice-gateway/bape/pkg/logger"
)

const maxPayerFieldLen = 120

type checkoutPayRequest struct {
	CustomerName  string `json:"customer_name" validate:"required,min=3"`
	CustomerCPF   string `json:"customer_cpf" validate:"required,min=11"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,min=10"`
}

// CheckoutBegin renders the public payment page state for an intent.
func CheckoutBegin(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		id, err := parseIntentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Begin(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CheckoutPay creates the provider charge and starts status polling.
func CheckoutPay(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		id, err := parseIntentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutPayRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payer := checkout.PayerDetails{
			Name:  validators.SanitizeString(body.CustomerName, maxPayerFieldLen),
			TaxID: validators.SanitizeString(body.CustomerCPF, maxPayerFieldLen),
			Email: validators.SanitizeString(body.CustomerEmail, maxPayerFieldLen),
			Phone: validators.SanitizeString(body.CustomerPhone, maxPayerFieldLen),
		}

		result, err := svc.Submit(r.Context(), id, payer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckoutStatus reports the persisted state of an intent for the payer UI poll.
func CheckoutStatus(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		id, err := parseIntentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Status(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
