package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/gift-recommender/internal/pipeline"
)

// handleGenerateStream runs the same generation as handleGenerate but reports each
// completed stage as an SSE "stage" event, ending with one "result" or "error" event.
// Request and vault errors are answered as plain JSON before the stream opens.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(r, &req, true); err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	vault, err := s.loadVault(ctx, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Stages complete sequentially on this goroutine, so writes never overlap.
	ctx = pipeline.WithProgress(ctx, func(e pipeline.ProgressEvent) {
		if err := sse.WriteEvent(eventStage, e); err != nil {
			s.logger.Debug("stream write failed", zap.Error(err))
		}
	})

	result, err := s.recommender.Generate(ctx, vault, req.OccasionType, req.MilestoneID)
	if err != nil {
		sse.WriteError(s.publicError(err))
		return
	}

	resp, err := s.buildResponse(ctx, vault.ID, milestoneOf(result, req.MilestoneID), result)
	if err != nil {
		sse.WriteError(s.publicError(err))
		return
	}
	if err := sse.WriteEvent(eventResult, resp); err != nil {
		s.logger.Debug("stream write failed", zap.Error(err))
	}
}
