package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"giftlottery/internal/domain"
)

type recoveryService struct {
	lotteryRepo     domain.LotteryRepository
	participantRepo domain.ParticipantRepository
	recoveryRepo    domain.RecoveryRepository
	emailService    domain.EmailService
	notifier        domain.Notifier
	logger          *slog.Logger
	contextTimeout  time.Duration
}

func NewRecoveryService(
	lotteryRepo domain.LotteryRepository,
	participantRepo domain.ParticipantRepository,
	recoveryRepo domain.RecoveryRepository,
	emailService domain.EmailService,
	notifier domain.Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RecoveryService {
	return &recoveryService{
		lotteryRepo:     lotteryRepo,
		participantRepo: participantRepo,
		recoveryRepo:    recoveryRepo,
		emailService:    emailService,
		notifier:        notifier,
		logger:          logger,
		contextTimeout:  timeout,
	}
}

// Open starts a new elimination session for the event, in Open state with
// zero clicks.
func (s *recoveryService) Open(ctx context.Context, eventURL, recoveryEmail string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	recoveryEmail = strings.TrimSpace(recoveryEmail)
	if recoveryEmail == "" {
		return "", domain.ErrInvalidInput
	}

	lottery, err := s.lotteryRepo.GetActive(ctx, eventURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get lottery: %w", err)
	}

	for retry := 0; ; retry++ {
		recoveryURL, err := generateToken()
		if err != nil {
			return "", err
		}
		session := domain.NewRecoverySession(lottery.ID, recoveryURL, recoveryEmail, time.Now())
		err = s.recoveryRepo.CreateSession(ctx, session)
		if err == nil {
			return recoveryURL, nil
		}
		if errors.Is(err, domain.ErrTokenInUse) && retry < tokenInsertRetries {
			continue
		}
		return "", fmt.Errorf("create recovery session: %w", err)
	}
}

// View returns the anonymized session state: the participant list and the
// aggregate click count, never which names were clicked.
func (s *recoveryService) View(ctx context.Context, recoveryURL string) (*domain.RecoveryView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	session, lottery, err := s.resolveSession(ctx, recoveryURL)
	if err != nil {
		return nil, err
	}

	participants, err := s.participantRepo.ListByLotteryID(ctx, lottery.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, p.Name)
	}

	clicked, err := s.recoveryRepo.ListClickedNames(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list clicks: %w", err)
	}

	return &domain.RecoveryView{
		EventName:         lottery.EventName,
		Participants:      names,
		ClickCount:        len(clicked),
		TotalParticipants: len(names),
		EmailSent:         session.EmailSent,
	}, nil
}

// RegisterClick records one "this is not me" confirmation. When the click
// count reaches N−1 the one name never clicked is deduced as the forgetful
// participant; the winning caller claims completion with a single conditional
// write and then dispatches the reveal email. Claiming before sending is what
// keeps two concurrent N−1 observers from both dispatching; a failed send is
// logged and left to ResendReveal.
func (s *recoveryService) RegisterClick(ctx context.Context, recoveryURL, recipientName string) (*domain.ClickResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	recipientName = strings.TrimSpace(recipientName)
	if recipientName == "" {
		return nil, domain.ErrInvalidInput
	}

	session, lottery, err := s.resolveSession(ctx, recoveryURL)
	if err != nil {
		return nil, err
	}
	if session.EmailSent {
		return nil, domain.ErrAlreadyCompleted
	}

	participants, err := s.participantRepo.ListByLotteryID(ctx, lottery.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	total := len(participants)

	clickedName := ""
	for _, p := range participants {
		if strings.EqualFold(p.Name, recipientName) {
			clickedName = p.Name
			break
		}
	}
	if clickedName == "" {
		return nil, domain.ErrNameNotInEvent
	}

	// The storage layer's uniqueness constraint is authoritative here; a
	// concurrent duplicate surfaces as ErrDuplicateClick from the insert.
	// The returned snapshot comes from the insert's own transaction, so of
	// two concurrent clicks exactly one observes the N-1 count; a separate
	// read here could let both land first and both see N, wedging the
	// session Open with the elimination never firing.
	clicked, err := s.recoveryRepo.InsertClick(ctx, session.ID, clickedName, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateClick) {
			return nil, domain.ErrDuplicateClick
		}
		return nil, fmt.Errorf("insert click: %w", err)
	}
	result := &domain.ClickResult{
		ClickCount:        len(clicked),
		TotalParticipants: total,
	}

	if result.ClickCount != total-1 {
		s.publishProgress(session.RecoveryURL, domain.KindRecoveryClick, result)
		return result, nil
	}

	won, err := s.recoveryRepo.CompleteSession(ctx, session.ID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if !won {
		// A concurrent click already claimed completion.
		s.publishProgress(session.RecoveryURL, domain.KindRecoveryClick, result)
		return result, nil
	}
	result.Completed = true

	missing := missingName(participants, clicked)
	if missing == "" {
		// N−1 distinct clicks over N participants always leave exactly one
		// name; reaching this means the participant list changed underneath us.
		s.logger.Error("elimination fired with no missing name", "recovery_url", session.RecoveryURL)
	} else {
		data := &domain.RecoveryRevealEmailData{
			Email:         session.RecoveryEmail,
			EventName:     lottery.EventName,
			RecipientName: missing,
		}
		if err := s.emailService.SendRecoveryReveal(ctx, data); err != nil {
			s.logger.Warn("recovery reveal email failed", "recovery_url", session.RecoveryURL, "err", err)
		}
	}

	s.publishProgress(session.RecoveryURL, domain.KindRecoveryCompleted, result)
	return result, nil
}

// missingName returns the one participant name absent from clicked, or "".
func missingName(participants []*domain.Participant, clicked []string) string {
	clickedSet := make(map[string]struct{}, len(clicked))
	for _, name := range clicked {
		clickedSet[name] = struct{}{}
	}
	for _, p := range participants {
		if _, ok := clickedSet[p.Name]; !ok {
			return p.Name
		}
	}
	return ""
}

func (s *recoveryService) publishProgress(recoveryURL, kind string, result *domain.ClickResult) {
	payload := domain.RecoveryProgressPayload{
		ClickCount:        result.ClickCount,
		TotalParticipants: result.TotalParticipants,
	}
	s.notifier.PublishRecovery(recoveryURL, kind, payload)
	s.notifier.PublishAdmin(kind, payload)
}

// ResendReveal re-runs the elimination over the stored clicks of a Completed
// session and dispatches the reveal again. The session stays Completed.
func (s *recoveryService) ResendReveal(ctx context.Context, recoveryURL string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	session, lottery, err := s.resolveSession(ctx, recoveryURL)
	if err != nil {
		return err
	}
	if !session.EmailSent {
		return domain.ErrInvalidInput
	}

	participants, err := s.participantRepo.ListByLotteryID(ctx, lottery.ID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	clicked, err := s.recoveryRepo.ListClickedNames(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("list clicks: %w", err)
	}
	missing := missingName(participants, clicked)
	if missing == "" {
		return domain.ErrInvalidInput
	}

	data := &domain.RecoveryRevealEmailData{
		Email:         session.RecoveryEmail,
		EventName:     lottery.EventName,
		RecipientName: missing,
	}
	if err := s.emailService.SendRecoveryReveal(ctx, data); err != nil {
		return fmt.Errorf("send recovery reveal: %w", err)
	}
	return nil
}

// SessionsForEvent lists per-session summaries for the event's organizer.
func (s *recoveryService) SessionsForEvent(ctx context.Context, eventURL string) ([]*domain.RecoverySessionSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	lottery, err := s.lotteryRepo.GetActive(ctx, eventURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get lottery: %w", err)
	}
	summaries, err := s.recoveryRepo.ListSummariesByLotteryID(ctx, lottery.ID)
	if err != nil {
		return nil, fmt.Errorf("list recovery sessions: %w", err)
	}
	if summaries == nil {
		summaries = []*domain.RecoverySessionSummary{}
	}
	return summaries, nil
}

// resolveSession loads a session by URL together with its active lottery.
func (s *recoveryService) resolveSession(ctx context.Context, recoveryURL string) (*domain.RecoverySession, *domain.Lottery, error) {
	session, err := s.recoveryRepo.GetSessionByURL(ctx, recoveryURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get recovery session: %w", err)
	}
	// Sessions always reference a live lottery thanks to the cascade delete,
	// so a miss here means the lottery was deactivated.
	lottery, err := s.lotteryRepo.GetByID(ctx, session.LotteryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get lottery: %w", err)
	}
	return session, lottery, nil
}
