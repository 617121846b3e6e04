package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

func updateBlocklist(runner Runner, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		outcome, err := runner.Run(ctx)
		if err != nil {
			log.Error("ERROR", "error", err)
			writeText(w, http.StatusInternalServerError, "An error occurred: "+err.Error())
			return
		}

		log.Info("Firewall rule updated",
			"rule", outcome.Rule,
			"entries", outcome.Ranges,
			"operation", outcome.Operation.Name,
			"duration", outcome.Duration,
		)
		writeText(w, http.StatusOK, outcome.Message())
	}
}
