package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/gift-recommender/internal/ranking"
	"github.com/jonathan/gift-recommender/internal/retrieval"
	"github.com/jonathan/gift-recommender/internal/selection"
	"github.com/jonathan/gift-recommender/internal/types"
)

// HintRetriever finds hints relevant to a query. It never fails.
type HintRetriever interface {
	Retrieve(ctx context.Context, vaultID uuid.UUID, query string) []types.RelevantHint
}

// CandidateAggregator gathers the raw candidate pool. It never fails.
type CandidateAggregator interface {
	Aggregate(ctx context.Context, profile *types.PartnerProfile, budget types.BudgetRange) []types.Candidate
}

// AvailabilityVerifier replaces selected candidates whose links no longer resolve.
type AvailabilityVerifier interface {
	Verify(ctx context.Context, selected, pool []types.Candidate) []types.Candidate
}

// ProgressEvent represents a stage transition during a run
type ProgressEvent struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ProgressCallback is called after each stage completes
type ProgressCallback func(event ProgressEvent)

// Deps are the long-lived collaborators of a Pipeline. Retriever and Verifier may be nil:
// the run then has no hints and skips link checks.
type Deps struct {
	Retriever  HintRetriever
	Aggregator CandidateAggregator
	Verifier   AvailabilityVerifier
	// Weights overrides the default love language weights when non-nil.
	Weights    map[types.LoveLanguage]types.LoveLanguageWeight
	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// Pipeline runs recommendation requests. It holds no per-request state and is safe for
// concurrent use as long as its collaborators are.
type Pipeline struct {
	deps   Deps
	logger *zap.Logger
}

// RefreshRequest asks for a new set after the user rejected the previous one.
type RefreshRequest struct {
	Rejected    []types.Candidate
	Reason      types.RejectionReason
	Occasion    types.OccasionType
	MilestoneID *uuid.UUID
}

// New creates a Pipeline.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{deps: deps, logger: logger}
}

// Generate produces up to three recommendations for the vault. Empty pools end the run
// with Result.Error set; the returned error is reserved for contract violations and
// cancellation.
func (p *Pipeline) Generate(ctx context.Context, vault *types.Vault, occasion types.OccasionType, milestoneID *uuid.UUID) (*Result, error) {
	state, err := LoadContext(vault, occasion, milestoneID)
	if err != nil {
		return nil, err
	}
	if err := p.drive(ctx, state, p.generateNodes()); err != nil {
		return nil, err
	}
	return resultOf(state), nil
}

// Refresh reruns the pipeline and drops candidates resembling the rejected ones
// according to the reason, before selection.
func (p *Pipeline) Refresh(ctx context.Context, vault *types.Vault, req RefreshRequest) (*Result, error) {
	if !req.Reason.Valid() {
		return nil, contractError(ErrInvalidRefreshReason, fmt.Sprintf("reason %q is not supported", req.Reason), nil)
	}
	state, err := LoadContext(vault, req.Occasion, req.MilestoneID)
	if err != nil {
		return nil, err
	}
	state.Rejected = req.Rejected
	state.RejectionReason = req.Reason

	if err := p.drive(ctx, state, p.refreshNodes()); err != nil {
		return nil, err
	}
	return resultOf(state), nil
}

// node is one state of the machine. When failWith is set, the run branches to
// StageFailed with that message if failWhen reports an empty result.
type node struct {
	stage    Stage
	run      func(ctx context.Context, s *State) error
	failWhen func(s *State) bool
	failWith string
	count    func(s *State) int
}

func (p *Pipeline) generateNodes() []node {
	return []node{
		{stage: StageRetrieve, run: p.retrieve, count: countHints},
		{stage: StageAggregate, run: p.aggregate, count: countPool,
			failWhen: func(s *State) bool { return len(s.CandidatePool) == 0 }, failWith: ErrMsgNoCandidates},
		{stage: StageFilter, run: p.filter, count: countFiltered,
			failWhen: emptyFiltered, failWith: ErrMsgAllFiltered},
		{stage: StageMatch, run: p.match, count: countFiltered},
		{stage: StageSelect, run: p.selectDiverse, count: countFinal},
		{stage: StageVerify, run: p.verify, count: countFinal},
	}
}

func (p *Pipeline) refreshNodes() []node {
	nodes := p.generateNodes()
	out := make([]node, 0, len(nodes)+1)
	for _, n := range nodes {
		out = append(out, n)
		if n.stage == StageAggregate {
			out = append(out, node{stage: StageExclude, run: p.exclude, count: countPool,
				failWhen: func(s *State) bool { return len(s.CandidatePool) == 0 }, failWith: ErrMsgNoNewRecommendations})
		}
	}
	return out
}

// drive runs the nodes in order until one branches to StageFailed or all complete.
func (p *Pipeline) drive(ctx context.Context, s *State, nodes []node) error {
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("recommendation run cancelled at %s: %w", n.stage, err)
		}
		s.Stage = n.stage
		if err := n.run(ctx, s); err != nil {
			return err
		}
		// I/O stages degrade to empty results on context errors; a cancelled run must
		// not be reported as a finished one.
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("recommendation run cancelled during %s: %w", n.stage, err)
		}
		p.emit(ctx, n, s)

		if n.failWhen != nil && n.failWhen(s) {
			s.Error = n.failWith
			s.Stage = StageFailed
			p.logger.Warn("recommendation run ended without results",
				zap.String("vault_id", s.VaultID.String()),
				zap.String("stage", string(n.stage)),
				zap.String("error", s.Error))
			return nil
		}
	}
	s.Stage = StageDone
	return nil
}

func (p *Pipeline) emit(ctx context.Context, n node, s *State) {
	count := 0
	if n.count != nil {
		count = n.count(s)
	}
	p.logger.Debug("stage complete",
		zap.String("vault_id", s.VaultID.String()),
		zap.String("stage", string(n.stage)),
		zap.Int("count", count))

	event := ProgressEvent{
		Stage:   n.stage,
		Message: stageMessages[n.stage],
		Count:   count,
	}
	if p.deps.OnProgress != nil {
		p.deps.OnProgress(event)
	}
	if cb, ok := ctx.Value(progressKey{}).(ProgressCallback); ok && cb != nil {
		cb(event)
	}
}

type progressKey struct{}

// WithProgress returns a context whose runs also report each completed stage to cb.
// It lets one request observe its own run on a shared Pipeline.
func WithProgress(ctx context.Context, cb ProgressCallback) context.Context {
	return context.WithValue(ctx, progressKey{}, cb)
}

var stageMessages = map[Stage]string{
	StageRetrieve:  "Retrieved relevant hints",
	StageAggregate: "Gathered candidates",
	StageFilter:    "Filtered by interests",
	StageMatch:     "Scored vibes and love languages",
	StageExclude:   "Applied refresh exclusions",
	StageSelect:    "Selected diverse picks",
	StageVerify:    "Verified availability",
}

// -----------------------------------------------------------------------------
// Stages
// -----------------------------------------------------------------------------

func (p *Pipeline) retrieve(ctx context.Context, s *State) error {
	s.RelevantHints = []types.RelevantHint{}
	if p.deps.Retriever == nil {
		return nil
	}
	query := retrieval.BuildQuery(&s.Profile, s.Occasion, s.Milestone)
	s.RelevantHints = p.deps.Retriever.Retrieve(ctx, s.VaultID, query)
	return nil
}

func (p *Pipeline) aggregate(ctx context.Context, s *State) error {
	if p.deps.Aggregator == nil {
		s.CandidatePool = []types.Candidate{}
		return nil
	}
	s.CandidatePool = p.deps.Aggregator.Aggregate(ctx, &s.Profile, s.Budget)
	return nil
}

func (p *Pipeline) filter(_ context.Context, s *State) error {
	s.FilteredPool = ranking.FilterByInterests(s.CandidatePool, s.Profile.Interests, s.Profile.Dislikes)
	return nil
}

func (p *Pipeline) match(_ context.Context, s *State) error {
	s.FilteredPool = ranking.MatchVibes(s.FilteredPool, ranking.MatchOptions{
		Interests: s.Profile.Interests,
		Vibes:     s.Profile.Vibes,
		Primary:   s.Profile.PrimaryLoveLanguage,
		Secondary: s.Profile.SecondaryLoveLanguage,
		Weights:   p.deps.Weights,
	})
	return nil
}

// exclude runs on the whole aggregated pool so the interest cap and scoring only see
// candidates the refresh may return.
func (p *Pipeline) exclude(_ context.Context, s *State) error {
	s.CandidatePool = ApplyExclusions(s.CandidatePool, s.Rejected, s.RejectionReason, s.Budget)
	return nil
}

func (p *Pipeline) selectDiverse(_ context.Context, s *State) error {
	picked, err := selection.SelectDiverse(s.FilteredPool, s.Budget, selection.DefaultCount)
	if err != nil {
		return contractError(ErrInvalidBudget, "selection rejected the budget", err)
	}
	s.FinalThree = picked
	return nil
}

func (p *Pipeline) verify(ctx context.Context, s *State) error {
	if p.deps.Verifier == nil {
		return nil
	}
	s.FinalThree = p.deps.Verifier.Verify(ctx, s.FinalThree, s.FilteredPool)
	return nil
}

func countHints(s *State) int    { return len(s.RelevantHints) }
func countPool(s *State) int     { return len(s.CandidatePool) }
func countFiltered(s *State) int { return len(s.FilteredPool) }
func countFinal(s *State) int    { return len(s.FinalThree) }

func emptyFiltered(s *State) bool { return len(s.FilteredPool) == 0 }
