package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/helpdesk/internal/common"
)

const internalMessage = "internal error"

// writeServiceError maps a service error to its response. Store and signing
// failures, and anything unclassified, become a bare 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := common.KindOf(err)

	switch kind {
	case common.KindValidation,
		common.KindConflict,
		common.KindInvalidToken,
		common.KindInvalidOTP,
		common.KindExpiredOTP,
		common.KindAlreadyVerified,
		common.KindNotFound,
		common.KindInvalidCredentials,
		common.KindUnverified:
		Error(w, http.StatusBadRequest, kind.Code(), err.Error())
	case common.KindTooManyAttempts:
		Error(w, http.StatusTooManyRequests, kind.Code(), err.Error())
	case common.KindInternal, common.KindUnknown:
		if kind == common.KindUnknown {
			h.logger.Error(r.Context(), "unclassified service error", "path", r.URL.Path, "error", err)
		}
		Error(w, http.StatusInternalServerError, common.KindInternal.Code(), internalMessage)
	default:
		Error(w, http.StatusInternalServerError, common.KindInternal.Code(), internalMessage)
	}
}
