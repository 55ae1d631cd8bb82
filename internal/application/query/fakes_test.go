package query

import (
	"context"
	"sync"
	"time"

	"github.com/learnloop/learnloop-core/internal/domain/content"
	"github.com/learnloop/learnloop-core/internal/domain/interaction"
	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/report"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes shared across the query handler tests.
// ─────────────────────────────────────────────────────────────────────────────

type fakeContentRepo struct {
	nodes map[string]*content.Node
	calls int
}

func (r *fakeContentRepo) GetByID(_ context.Context, id string) (*content.Node, error) {
	r.calls++
	n, ok := r.nodes[id]
	if !ok {
		return nil, shared.ErrContentNotFound
	}
	return n, nil
}

type fakeNodeCache struct {
	mu      sync.Mutex
	nodes   map[string]*content.Node
	getErr  error
	setErr  error
	setSeen int
}

func newFakeNodeCache() *fakeNodeCache {
	return &fakeNodeCache{nodes: make(map[string]*content.Node)}
}

func (c *fakeNodeCache) GetNode(_ context.Context, id string) (*content.Node, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	n, ok := c.nodes[id]
	return n, ok, nil
}

func (c *fakeNodeCache) SetNode(_ context.Context, n *content.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setSeen++
	if c.setErr != nil {
		return c.setErr
	}
	c.nodes[n.ID] = n
	return nil
}

type fakeResolver struct {
	links *content.VideoLinks
	err   error
	calls int
}

func (r *fakeResolver) Resolve(_ context.Context, _ string) (*content.VideoLinks, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.links, nil
}

type fakeRecommender struct {
	rec *content.Recommendation
	err error
}

func (r *fakeRecommender) NextFor(_ context.Context, _ string) (*content.Recommendation, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.rec, nil
}

type fakeLearnerRepo struct {
	learners map[string]*learner.Learner
	profiles map[string]*learner.Profile
}

func (r *fakeLearnerRepo) Create(_ context.Context, l *learner.Learner) error {
	r.learners[l.ID] = l
	return nil
}

func (r *fakeLearnerRepo) GetByID(_ context.Context, id string) (*learner.Learner, error) {
	l, ok := r.learners[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return l, nil
}

func (r *fakeLearnerRepo) GetByEmail(_ context.Context, email string) (*learner.Learner, error) {
	for _, l := range r.learners {
		if l.Email.String() == email {
			return l, nil
		}
	}
	return nil, shared.ErrLearnerNotFound
}

func (r *fakeLearnerRepo) GetProfile(_ context.Context, learnerID string) (*learner.Profile, error) {
	p, ok := r.profiles[learnerID]
	if !ok {
		return nil, shared.NewDomainError("learner", "GetProfile", shared.ErrNotFound, "profile not found")
	}
	return p, nil
}

func (r *fakeLearnerRepo) UpsertProfile(_ context.Context, p *learner.Profile) error {
	r.profiles[p.LearnerID] = p
	return nil
}

func learnerFixture(id string, tier learner.Tier) *learner.Learner {
	return &learner.Learner{
		ID:          id,
		Email:       shared.Email(id + "@example.com"),
		DisplayName: "Learner " + id,
		Tier:        tier,
		HintCredits: 5,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

type fakeReportRepo struct {
	reports []*report.Report
}

func (r *fakeReportRepo) Create(_ context.Context, rep *report.Report) error {
	r.reports = append(r.reports, rep)
	return nil
}

func (r *fakeReportRepo) GetByID(_ context.Context, id string) (*report.Report, error) {
	for _, rep := range r.reports {
		if rep.ID == id {
			return rep, nil
		}
	}
	return nil, shared.ErrReportNotFound
}

func (r *fakeReportRepo) ListByLearner(_ context.Context, learnerID string, _ shared.Pagination) ([]*report.Report, error) {
	var out []*report.Report
	for _, rep := range r.reports {
		if rep.LearnerID == learnerID {
			out = append(out, rep)
		}
	}
	return out, nil
}

type fakeStats struct {
	total  int64
	today  int64
	week   int64
	streak int
	recent []interaction.ActivityEntry
	err    error
}

func (s *fakeStats) CountByLearner(_ context.Context, _ string) (int64, error) {
	return s.total, s.err
}

func (s *fakeStats) CountByLearnerSince(_ context.Context, _ string, since, until time.Time) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if until.Sub(since) > 24*time.Hour {
		return s.week, nil
	}
	return s.today, nil
}

func (s *fakeStats) ActiveDayStreak(_ context.Context, _ string) (int, error) {
	return s.streak, s.err
}

func (s *fakeStats) RecentByLearner(_ context.Context, _ string, limit int) ([]interaction.ActivityEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.recent) > limit {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}
