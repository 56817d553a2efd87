package api

import (
	"encoding/json"
	"errors"
	"net/http"

	gridErrors "github.com/sritchie73/bad-boyz-cluster/pkg/errors"
	"github.com/sritchie73/bad-boyz-cluster/pkg/log"
)

// writeJSON writes v as the JSON response body with status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorMsg writes the error_msg envelope directly, for handler
// failures that never reached a Grid operation (malformed JSON,
// missing auth).
func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error_msg": msg})
}

// writeError maps a Grid operation's error kind to its HTTP status via
// errors.As, logging the error kind before translating it to the wire
// envelope.
func writeError(w http.ResponseWriter, err error) {
	errLogger := log.WithComponent("api")

	var gerr *gridErrors.GridError
	if errors.As(err, &gerr) {
		errLogger.Error().Str("kind", string(gerr.Kind)).Msg(gerr.Message)
		writeErrorMsg(w, statusForKind(gerr.Kind), gerr.Message)
		return
	}

	errLogger.Error().Err(err).Msg("unhandled error")
	writeErrorMsg(w, http.StatusInternalServerError, err.Error())
}

func statusForKind(kind gridErrors.Kind) int {
	switch kind {
	case gridErrors.KindJobNotFound, gridErrors.KindNodeNotFound:
		return http.StatusNotFound
	case gridErrors.KindInvalidTransition:
		return http.StatusInternalServerError
	case gridErrors.KindNodeUnavailable:
		// Only reached via a client-initiated kill that could not
		// reach a node; every other occurrence is downgraded to
		// marking the node DEAD and logging.
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
