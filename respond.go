package eduauth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cccteam/eduauth/fault"
	"github.com/cccteam/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError reports err to the caller as a 400 with a client safe message.
// err is returned unchanged for the LogHandler, which logs client messages at
// info level and everything else as an error.
func writeError(ctx context.Context, w http.ResponseWriter, err error) error {
	msg := fault.Message(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if encErr := json.NewEncoder(w).Encode(errorResponse{Error: msg}); encErr != nil {
		logger.Ctx(ctx).Errorf("failed to write error response: %s", encErr)
	}

	return err
}
