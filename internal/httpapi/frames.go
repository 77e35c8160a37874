package httpapi

import (
	"errors"
	"net/http"

	"lorasense/internal/formatter"
	"lorasense/internal/frame"
	"lorasense/internal/utils"
)

type framesHandler struct {
	formatter *formatter.Formatter
}

// handleDecode formats one uplink without publishing it.
func (h *framesHandler) handleDecode(w http.ResponseWriter, r *http.Request) {
	var u formatter.Uplink
	if err := utils.DecodeJSON(r, &u); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid uplink JSON: "+err.Error())
		return
	}

	envs, err := h.formatter.Format(u)
	switch {
	case err == nil:
		utils.WriteJSON(w, http.StatusOK, envs)
	case errors.Is(err, formatter.ErrMissingPayload), errors.Is(err, formatter.ErrMissingDevice):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		offset := -1
		var fe *frame.Error
		if errors.As(err, &fe) {
			offset = fe.Offset
		}
		utils.WriteError(w, http.StatusUnprocessableEntity, err.Error(),
			"reason", frame.Reason(err),
			"offset", offset,
		)
	}
}

func registerFrames(mux *http.ServeMux, f *formatter.Formatter) {
	h := &framesHandler{formatter: f}
	mux.HandleFunc("POST /api/v1/frames/decode", h.handleDecode)
}
