package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/gift-recommender/internal/types"
)

// DefaultHTTPTimeout bounds a single supplier request.
const DefaultHTTPTimeout = 8 * time.Second

// maxResponseBytes caps a supplier response body.
const maxResponseBytes = 4 << 20

// HTTP is a supplier backed by a JSON catalog service exposing
// GET /gifts and GET /experiences.
type HTTP struct {
	name    string
	baseURL string
	client  *http.Client
}

// catalogResponse is the wire shape of both endpoints.
type catalogResponse struct {
	Items []types.Candidate `json:"items"`
}

// NewHTTP creates an HTTP supplier. A nil client gets DefaultHTTPTimeout.
func NewHTTP(name, baseURL string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if name == "" {
		name = "http"
	}
	return &HTTP{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Name implements CandidateSupplier.
func (h *HTTP) Name() string { return h.name }

// FetchGifts implements CandidateSupplier.
func (h *HTTP) FetchGifts(ctx context.Context, interests []string, budget types.BudgetRange) ([]types.Candidate, error) {
	q := budgetQuery(budget)
	for _, interest := range interests {
		q.Add("interest", interest)
	}
	return h.get(ctx, "/gifts", q, types.CandidateGift)
}

// FetchExperiences implements CandidateSupplier.
func (h *HTTP) FetchExperiences(ctx context.Context, vibes []types.Vibe, budget types.BudgetRange, location *types.Location) ([]types.Candidate, error) {
	q := budgetQuery(budget)
	for _, vibe := range vibes {
		q.Add("vibe", string(vibe))
	}
	if location != nil {
		setIf(q, "city", location.City)
		setIf(q, "state", location.State)
		setIf(q, "country", location.Country)
	}
	return h.get(ctx, "/experiences", q, types.CandidateExperience)
}

func (h *HTTP) get(ctx context.Context, path string, q url.Values, defaultKind types.CandidateType) ([]types.Candidate, error) {
	endpoint := h.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Supplier: h.name, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &Error{Supplier: h.name, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Supplier: h.name, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	var body catalogResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, &Error{Supplier: h.name, Message: "failed to decode response", Cause: err}
	}

	out := make([]types.Candidate, 0, len(body.Items))
	for _, c := range body.Items {
		if c.ID == "" || strings.TrimSpace(c.Title) == "" {
			continue
		}
		if c.Source == "" {
			c.Source = h.name
		}
		if c.Type == "" {
			c.Type = defaultKind
		}
		out = append(out, c)
	}
	return out, nil
}

func budgetQuery(budget types.BudgetRange) url.Values {
	q := url.Values{}
	q.Set("min_cents", strconv.Itoa(budget.MinCents))
	q.Set("max_cents", strconv.Itoa(budget.MaxCents))
	q.Set("currency", budget.Currency)
	return q
}

func setIf(q url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		q.Set(key, v)
	}
}
