package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"giftlottery/internal/domain"
)

// In-memory fakes implementing the domain ports, shared by the service tests.

type fakeLotteryRepo struct {
	mu        sync.Mutex
	nextID    int64
	lotteries map[string]*domain.Lottery // by event URL
	byID      map[int64]*domain.Lottery
	parts     *fakeParticipantRepo
	createErr error
}

func newFakeLotteryRepo(parts *fakeParticipantRepo) *fakeLotteryRepo {
	return &fakeLotteryRepo{
		lotteries: make(map[string]*domain.Lottery),
		byID:      make(map[int64]*domain.Lottery),
		parts:     parts,
	}
}

func (f *fakeLotteryRepo) CreateWithParticipants(ctx context.Context, l *domain.Lottery, participants []*domain.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.lotteries[l.EventURL]; exists {
		return domain.ErrTokenInUse
	}
	f.nextID++
	l.ID = f.nextID
	f.lotteries[l.EventURL] = l
	f.byID[l.ID] = l
	for _, p := range participants {
		p.LotteryID = l.ID
		f.parts.add(p)
	}
	return nil
}

func (f *fakeLotteryRepo) GetActive(ctx context.Context, eventURL string) (*domain.Lottery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if eventURL != "" {
		if l, ok := f.lotteries[eventURL]; ok && l.Active {
			return l, nil
		}
		return nil, domain.ErrNotFound
	}
	var latest *domain.Lottery
	for _, l := range f.lotteries {
		if !l.Active {
			continue
		}
		if latest == nil || l.CreatedAt.After(latest.CreatedAt) {
			latest = l
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (f *fakeLotteryRepo) GetByID(ctx context.Context, id int64) (*domain.Lottery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.byID[id]; ok && l.Active {
		return l, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeLotteryRepo) VerifyAdmin(ctx context.Context, eventURL, username, password string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lotteries[eventURL]
	if !ok || !l.Active {
		return false, nil
	}
	return l.AdminUsername == username && l.AdminPassword == password, nil
}

func (f *fakeLotteryRepo) Delete(ctx context.Context, eventURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lotteries[eventURL]
	if !ok {
		return domain.ErrNotFound
	}
	delete(f.lotteries, eventURL)
	delete(f.byID, l.ID)
	f.parts.deleteByLottery(l.ID)
	return nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants []*domain.Participant
	listErr      error
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{}
}

func (f *fakeParticipantRepo) add(p *domain.Participant) {
	f.participants = append(f.participants, p)
}

func (f *fakeParticipantRepo) deleteByLottery(lotteryID int64) {
	kept := f.participants[:0]
	for _, p := range f.participants {
		if p.LotteryID != lotteryID {
			kept = append(kept, p)
		}
	}
	f.participants = kept
}

func (f *fakeParticipantRepo) ListByLotteryID(ctx context.Context, lotteryID int64) ([]*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Participant, 0)
	for _, p := range f.participants {
		if p.LotteryID == lotteryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) GetByName(ctx context.Context, lotteryID int64, name string) (*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants {
		if p.LotteryID == lotteryID && strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeParticipantRepo) MarkViewed(ctx context.Context, lotteryID int64, name string, viewedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants {
		if p.LotteryID == lotteryID && strings.EqualFold(p.Name, name) {
			if p.Viewed {
				return false, nil
			}
			p.Viewed = true
			at := viewedAt
			p.ViewedAt = &at
			return true, nil
		}
	}
	return false, nil
}

type fakeRecoveryRepo struct {
	mu          sync.Mutex
	nextID      int64
	sessions    map[string]*domain.RecoverySession // by recovery URL
	clicks      map[int64][]string                 // session ID -> clicked names
	completeErr error
	// forceLoseCompletion makes CompleteSession report that another caller won.
	forceLoseCompletion bool
}

func newFakeRecoveryRepo() *fakeRecoveryRepo {
	return &fakeRecoveryRepo{
		sessions: make(map[string]*domain.RecoverySession),
		clicks:   make(map[int64][]string),
	}
}

func (f *fakeRecoveryRepo) CreateSession(ctx context.Context, s *domain.RecoverySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.sessions[s.RecoveryURL]; exists {
		return domain.ErrTokenInUse
	}
	f.nextID++
	s.ID = f.nextID
	f.sessions[s.RecoveryURL] = s
	return nil
}

func (f *fakeRecoveryRepo) GetSessionByURL(ctx context.Context, recoveryURL string) (*domain.RecoverySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[recoveryURL]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRecoveryRepo) ListSummariesByLotteryID(ctx context.Context, lotteryID int64) ([]*domain.RecoverySessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.RecoverySessionSummary, 0)
	for _, s := range f.sessions {
		if s.LotteryID != lotteryID {
			continue
		}
		out = append(out, &domain.RecoverySessionSummary{
			RecoveryURL:   s.RecoveryURL,
			RecoveryEmail: s.RecoveryEmail,
			ClickCount:    len(f.clicks[s.ID]),
			EmailSent:     s.EmailSent,
			CreatedAt:     s.CreatedAt,
			EmailSentAt:   s.EmailSentAt,
		})
	}
	return out, nil
}

// InsertClick returns the post-insert snapshot under the same lock as the
// insert, mirroring the transactional read of the real repository.
func (f *fakeRecoveryRepo) InsertClick(ctx context.Context, sessionID int64, recipientName string, clickedAt time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, name := range f.clicks[sessionID] {
		if name == recipientName {
			return nil, domain.ErrDuplicateClick
		}
	}
	f.clicks[sessionID] = append(f.clicks[sessionID], recipientName)
	names := make([]string, len(f.clicks[sessionID]))
	copy(names, f.clicks[sessionID])
	return names, nil
}

func (f *fakeRecoveryRepo) ListClickedNames(ctx context.Context, sessionID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.clicks[sessionID]))
	copy(out, f.clicks[sessionID])
	return out, nil
}

func (f *fakeRecoveryRepo) CompleteSession(ctx context.Context, sessionID int64, emailSentAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return false, f.completeErr
	}
	if f.forceLoseCompletion {
		return false, nil
	}
	for _, s := range f.sessions {
		if s.ID == sessionID {
			if s.EmailSent {
				return false, nil
			}
			s.EmailSent = true
			at := emailSentAt
			s.EmailSentAt = &at
			return true, nil
		}
	}
	return false, nil
}

type sentEmail struct {
	kind string
	to   string
	name string
}

type fakeEmailService struct {
	mu      sync.Mutex
	sent    []sentEmail
	sendErr error
}

func (f *fakeEmailService) SendAdminCredentials(ctx context.Context, data *domain.AdminCredentialsEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentEmail{kind: "admin_credentials", to: data.Email})
	return nil
}

func (f *fakeEmailService) SendRecoveryReveal(ctx context.Context, data *domain.RecoveryRevealEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentEmail{kind: "recovery_reveal", to: data.Email, name: data.RecipientName})
	return nil
}

type published struct {
	topic string
	kind  string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []published
}

func (f *fakeNotifier) PublishLottery(eventURL, kind string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{topic: "lottery:" + eventURL, kind: kind})
}

func (f *fakeNotifier) PublishRecovery(recoveryURL, kind string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{topic: "recovery:" + recoveryURL, kind: kind})
}

func (f *fakeNotifier) PublishAdmin(kind string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{topic: "admin", kind: kind})
}

func (f *fakeNotifier) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.kind)
	}
	return out
}

type fakeTokenIssuer struct {
	token string
	err   error
}

func (f *fakeTokenIssuer) Issue(eventURL string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.token != "" {
		return f.token, nil
	}
	return "token-" + eventURL, nil
}
