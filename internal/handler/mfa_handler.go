package handler

import "net/http"

func (h *Handler) BeginMFASetup(w http.ResponseWriter, r *http.Request) {
	setup, err := h.mfaService.BeginSetup(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MFASetupResponse{Secret: setup.Secret, OTPAuthURL: setup.URL})
}

func (h *Handler) EnableMFA(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	codes, err := h.mfaService.Enable(r.Context(), UserFromContext(r.Context()), req.Code)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BackupCodesResponse{BackupCodes: codes})
}

func (h *Handler) DisableMFA(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.mfaService.Disable(r.Context(), UserFromContext(r.Context()), req.Password); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	codes, err := h.mfaService.RegenerateBackupCodes(r.Context(), UserFromContext(r.Context()), req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BackupCodesResponse{BackupCodes: codes})
}
