package command

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/learnloop/learnloop-core/internal/domain/content"
	"github.com/learnloop/learnloop-core/internal/domain/interaction"
	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/quiz"
	"github.com/learnloop/learnloop-core/internal/domain/report"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes shared across the command handler tests.
// ─────────────────────────────────────────────────────────────────────────────

type fakeLearnerRepo struct {
	mu       sync.Mutex
	byID     map[string]*learner.Learner
	profiles map[string]*learner.Profile
}

func newFakeLearnerRepo() *fakeLearnerRepo {
	return &fakeLearnerRepo{
		byID:     make(map[string]*learner.Learner),
		profiles: make(map[string]*learner.Profile),
	}
}

func (r *fakeLearnerRepo) Create(_ context.Context, l *learner.Learner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == l.Email {
			return shared.ErrLearnerAlreadyExists
		}
	}
	r.byID[l.ID] = l
	return nil
}

func (r *fakeLearnerRepo) GetByID(_ context.Context, id string) (*learner.Learner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return l, nil
}

func (r *fakeLearnerRepo) GetByEmail(_ context.Context, email string) (*learner.Learner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if l.Email.String() == email {
			return l, nil
		}
	}
	return nil, shared.ErrLearnerNotFound
}

func (r *fakeLearnerRepo) GetProfile(_ context.Context, learnerID string) (*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[learnerID]
	if !ok {
		return nil, shared.NewDomainError("learner", "GetProfile", shared.ErrNotFound, "profile not found")
	}
	return p, nil
}

func (r *fakeLearnerRepo) UpsertProfile(_ context.Context, p *learner.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.LearnerID] = p
	return nil
}

type fakeSessions struct {
	mu      sync.Mutex
	created int
	lastID  string
}

func (s *fakeSessions) Create(_ context.Context, learnerID, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	s.lastID = learnerID
	return "tok-" + learnerID, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) published() []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.Event, len(p.events))
	copy(out, p.events)
	return out
}

// fakeLedger serializes debits on a mutex the way the real ledger
// serializes them on a row lock.
type fakeLedger struct {
	mu      sync.Mutex
	balance int
	hints   map[string]string
}

func (l *fakeLedger) DebitHintCredit(_ context.Context, _, contentNodeID string) (*learner.DebitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	hint, ok := l.hints[contentNodeID]
	if !ok {
		return nil, shared.ErrHintNotAvailable
	}
	if l.balance <= 0 {
		return nil, shared.ErrNoHintCredits
	}
	l.balance--
	return &learner.DebitResult{
		Hint:             hint,
		RemainingCredits: learner.HintCredits(l.balance),
	}, nil
}

type fakePaymentCredit struct {
	mu      sync.Mutex
	applied map[string]bool
}

func (c *fakePaymentCredit) ApplyPaymentCredit(_ context.Context, paymentEventID, _ string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.applied == nil {
		c.applied = make(map[string]bool)
	}
	if c.applied[paymentEventID] {
		return false, nil
	}
	c.applied[paymentEventID] = true
	return true, nil
}

type fakeContentRepo struct {
	nodes map[string]*content.Node
}

func (r *fakeContentRepo) GetByID(_ context.Context, id string) (*content.Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, shared.ErrContentNotFound
	}
	return n, nil
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]*quiz.Attempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[string]*quiz.Attempt)}
}

func (r *fakeAttemptRepo) Create(_ context.Context, a *quiz.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *a
	r.attempts[a.ID] = &stored
	return nil
}

func (r *fakeAttemptRepo) GetByID(_ context.Context, id string) (*quiz.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, shared.ErrAttemptNotFound
	}
	c := *a
	return &c, nil
}

func (r *fakeAttemptRepo) MarkSubmitted(_ context.Context, a *quiz.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.attempts[a.ID]
	if !ok {
		return shared.ErrAttemptNotFound
	}
	if stored.State == quiz.StateScored {
		return shared.ErrAttemptScored
	}
	stored.Answers = a.Answers
	stored.State = a.State
	stored.SubmittedAt = a.SubmittedAt
	return nil
}

func (r *fakeAttemptRepo) FinalizeScore(_ context.Context, a *quiz.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.attempts[a.ID]
	if !ok {
		return shared.ErrAttemptNotFound
	}
	if stored.State == quiz.StateScored {
		return shared.ErrAttemptScored
	}
	updated := *a
	r.attempts[a.ID] = &updated
	return nil
}

func (r *fakeAttemptRepo) ListByLearner(_ context.Context, learnerID string, _ shared.Pagination) ([]*quiz.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*quiz.Attempt
	for _, a := range r.attempts {
		if a.LearnerID == learnerID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeOracle struct {
	questions    json.RawMessage
	score        float64
	feedback     json.RawMessage
	generateErr  error
	evaluateErr  error
	evaluateSeen int
}

func (o *fakeOracle) GenerateQuestions(_ context.Context, _ string) (json.RawMessage, error) {
	if o.generateErr != nil {
		return nil, o.generateErr
	}
	return o.questions, nil
}

func (o *fakeOracle) Evaluate(_ context.Context, _, _ json.RawMessage) (*quiz.Evaluation, error) {
	o.evaluateSeen++
	if o.evaluateErr != nil {
		return nil, o.evaluateErr
	}
	score, err := shared.NewScore(o.score)
	if err != nil {
		return nil, err
	}
	return &quiz.Evaluation{Score: score, Feedback: o.feedback}, nil
}

type fakeSink struct {
	mu       sync.Mutex
	accepted []*interaction.Interaction
	err      error
}

func (s *fakeSink) Accept(_ context.Context, i *interaction.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.accepted = append(s.accepted, i)
	return nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports []*report.Report
}

func (r *fakeReportRepo) Create(_ context.Context, rep *report.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
	return nil
}

func (r *fakeReportRepo) GetByID(_ context.Context, id string) (*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.ID == id {
			return rep, nil
		}
	}
	return nil, shared.ErrReportNotFound
}

func (r *fakeReportRepo) ListByLearner(_ context.Context, learnerID string, _ shared.Pagination) ([]*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*report.Report
	for _, rep := range r.reports {
		if rep.LearnerID == learnerID {
			out = append(out, rep)
		}
	}
	return out, nil
}
