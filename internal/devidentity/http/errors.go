package http

import (
	"net/http"

	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/identity"
)

func writeValidation(w http.ResponseWriter, fields map[string]string) {
	httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorBody{
		Error:            identity.ErrorCodeValidation,
		ErrorDescription: "request validation failed",
		Details:          fields,
	})
}

func writeInvalidRequest(w http.ResponseWriter, desc string) {
	httpx.WriteError(w, http.StatusBadRequest, identity.ErrorCodeInvalidRequest, desc)
}

func writeServerError(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusInternalServerError, identity.ErrorCodeServerError, "internal server error")
}

func writeInvalidToken(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized, identity.ErrorCodeInvalidToken, "invalid or missing token")
}
