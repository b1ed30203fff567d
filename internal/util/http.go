package util

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/rs/zerolog"
)

const maxJSONBody = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError answers with the single JSON notice {"error": "..."} and the
// status apperror maps err to. Server-side failures are logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	message := err.Error()

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("Request failed")
		if status == http.StatusInternalServerError {
			message = config.ErrInternalServerErr
		}
	}

	WriteJSON(w, status, errorBody{Error: message})
}

// DecodeJSON reads a bounded JSON body into v. Malformed input becomes a
// validation error.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.Validation("body", config.ErrInvalidJSON)
	}
	return nil
}
