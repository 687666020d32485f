package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/gift-recommender/internal/db"
	"github.com/jonathan/gift-recommender/internal/pipeline"
	"github.com/jonathan/gift-recommender/internal/server/middleware"
	"github.com/jonathan/gift-recommender/internal/types"
)

// maxBodyBytes caps request bodies; both endpoints take a handful of fields.
const maxBodyBytes = 64 << 10

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// GenerateRequest is the body of POST /vaults/{vault_id}/recommendations. Both fields
// are optional: the milestone's budget tier or just_because picks the budget.
type GenerateRequest struct {
	OccasionType types.OccasionType `json:"occasion_type,omitempty" validate:"omitempty,oneof=just_because minor_occasion major_milestone"`
	MilestoneID  *uuid.UUID         `json:"milestone_id,omitempty"`
}

// RefreshRequest is the body of POST /vaults/{vault_id}/recommendations/refresh.
type RefreshRequest struct {
	RejectedIDs     []uuid.UUID           `json:"rejected_recommendation_ids" validate:"required,min=1,max=3"`
	RejectionReason types.RejectionReason `json:"rejection_reason" validate:"required,oneof=too_expensive too_cheap not_their_style already_have_similar show_different"`
	OccasionType    types.OccasionType    `json:"occasion_type,omitempty" validate:"omitempty,oneof=just_because minor_occasion major_milestone"`
	MilestoneID     *uuid.UUID            `json:"milestone_id,omitempty"`
}

// RecommendationItem is one persisted recommendation. RecommendationID is what the
// client sends back when rejecting it.
type RecommendationItem struct {
	RecommendationID uuid.UUID `json:"recommendation_id"`
	types.Candidate
}

// RecommendationsResponse is returned by both endpoints. Error is set, with an empty
// list, when the run found nothing to recommend.
type RecommendationsResponse struct {
	Recommendations []RecommendationItem `json:"recommendations"`
	RelevantHints   []types.RelevantHint `json:"relevant_hints"`
	Error           string               `json:"error,omitempty"`
}

// handleGenerate runs the pipeline for the caller's vault and persists the result.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
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

	result, err := s.recommender.Generate(ctx, vault, req.OccasionType, req.MilestoneID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondWithResult(ctx, w, vault.ID, milestoneOf(result, req.MilestoneID), result)
}

// handleRefresh records the rejection and reruns the pipeline excluding candidates
// that resemble the rejected recommendations.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeBody(r, &req, false); err != nil {
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

	stored, err := s.store.GetRecommendations(ctx, vault.ID, req.RejectedIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(stored) == 0 {
		s.writeError(w, &ErrValidation{Field: "rejected_recommendation_ids", Message: "no matching recommendations in this vault"})
		return
	}

	rejected := make([]types.Candidate, 0, len(stored))
	for _, rec := range stored {
		rejected = append(rejected, rec.Candidate)
	}

	// Refresh the same event unless the client says otherwise.
	milestoneID := req.MilestoneID
	if milestoneID == nil && req.OccasionType == "" {
		milestoneID = stored[0].MilestoneID
	}

	if err := s.store.RecordFeedback(ctx, vault.ID, req.RejectedIDs, req.RejectionReason); err != nil {
		s.logger.Warn("failed to record feedback",
			zap.String("vault_id", vault.ID.String()), zap.Error(err))
	}

	result, err := s.recommender.Refresh(ctx, vault, pipeline.RefreshRequest{
		Rejected:    rejected,
		Reason:      req.RejectionReason,
		Occasion:    req.OccasionType,
		MilestoneID: milestoneID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondWithResult(ctx, w, vault.ID, milestoneOf(result, milestoneID), result)
}

// loadVault resolves the vault in the path for the authenticated user.
func (s *Server) loadVault(ctx context.Context, r *http.Request) (*types.Vault, error) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return nil, err
	}
	vaultID, err := uuid.Parse(r.PathValue("vault_id"))
	if err != nil {
		return nil, &ErrValidation{Field: "vault_id", Message: "must be a UUID"}
	}

	vault, err := s.store.LoadVault(ctx, vaultID, userID)
	if err != nil {
		return nil, err
	}
	if vault == nil {
		return nil, &ErrVaultNotFound{VaultID: vaultID}
	}
	return vault, nil
}

func (s *Server) respondWithResult(ctx context.Context, w http.ResponseWriter, vaultID uuid.UUID, milestoneID *uuid.UUID, result *pipeline.Result) {
	resp, err := s.buildResponse(ctx, vaultID, milestoneID, result)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// buildResponse persists the returned items and shapes the response body.
func (s *Server) buildResponse(ctx context.Context, vaultID uuid.UUID, milestoneID *uuid.UUID, result *pipeline.Result) (RecommendationsResponse, error) {
	resp := RecommendationsResponse{
		Recommendations: []RecommendationItem{},
		RelevantHints:   result.Hints,
		Error:           result.Error,
	}
	if len(result.Items) == 0 {
		return resp, nil
	}

	saved, err := s.store.SaveRecommendations(ctx, vaultID, milestoneID, result.Items)
	if err != nil {
		return RecommendationsResponse{}, err
	}
	resp.Recommendations = itemsOf(saved)
	return resp, nil
}

func itemsOf(saved []db.StoredRecommendation) []RecommendationItem {
	items := make([]RecommendationItem, 0, len(saved))
	for _, rec := range saved {
		items = append(items, RecommendationItem{RecommendationID: rec.ID, Candidate: rec.Candidate})
	}
	return items
}

// milestoneOf prefers the milestone the run actually resolved.
func milestoneOf(result *pipeline.Result, requested *uuid.UUID) *uuid.UUID {
	if result.State != nil && result.State.Milestone != nil {
		id := result.State.Milestone.ID
		return &id
	}
	return requested
}

// writeError maps err to a status. Server-side failures are logged and not echoed.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, message := s.publicError(err)
	s.errorResponse(w, status, message)
}

func (s *Server) publicError(err error) (int, string) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
		return status, http.StatusText(status)
	}
	return status, err.Error()
}

// decodeBody reads a JSON body into dst and validates it. An empty body is accepted
// when allowEmpty is set.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ErrValidation{Field: fe.Field(), Message: "failed '" + fe.Tag() + "' check"}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}
