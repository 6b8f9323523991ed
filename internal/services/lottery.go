package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"giftlottery/internal/assign"
	"giftlottery/internal/domain"
)

// minParticipants is the smallest group for which a constrained derangement
// is worth attempting.
const minParticipants = 3

// adminTokenExpiry bounds how long an issued admin session token stays valid.
const adminTokenExpiry = 12 * time.Hour

type lotteryService struct {
	lotteryRepo     domain.LotteryRepository
	participantRepo domain.ParticipantRepository
	engine          *assign.Engine
	emailService    domain.EmailService
	notifier        domain.Notifier
	tokenIssuer     domain.TokenIssuer
	logger          *slog.Logger
	contextTimeout  time.Duration
}

func NewLotteryService(
	lotteryRepo domain.LotteryRepository,
	participantRepo domain.ParticipantRepository,
	engine *assign.Engine,
	emailService domain.EmailService,
	notifier domain.Notifier,
	tokenIssuer domain.TokenIssuer,
	logger *slog.Logger,
	timeout time.Duration,
) domain.LotteryService {
	return &lotteryService{
		lotteryRepo:     lotteryRepo,
		participantRepo: participantRepo,
		engine:          engine,
		emailService:    emailService,
		notifier:        notifier,
		tokenIssuer:     tokenIssuer,
		logger:          logger,
		contextTimeout:  timeout,
	}
}

// Create validates the input, runs the assignment engine, and persists the
// lottery with all participants in one transaction. The admin credentials
// email and the realtime broadcast are dispatched only after the commit and
// never roll it back.
func (s *lotteryService) Create(ctx context.Context, input domain.CreateLotteryInput) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validateCreateInput(input); err != nil {
		return "", err
	}

	assignments, err := s.engine.Assign(input.Participants, input.Families, input.FamilyMode)
	if err != nil {
		if errors.Is(err, assign.ErrInfeasible) {
			return "", domain.ErrAssignmentInfeasible
		}
		return "", fmt.Errorf("assign: %w", err)
	}

	var lottery *domain.Lottery
	for retry := 0; ; retry++ {
		eventURL, err := generateToken()
		if err != nil {
			return "", err
		}
		lottery = domain.NewLottery(eventURL, input.EventName, input.AdminUsername, input.AdminPassword, input.FamilyMode, time.Now())

		participants := make([]*domain.Participant, 0, len(input.Participants))
		for _, name := range input.Participants {
			participants = append(participants, domain.NewParticipant(0, name, input.Families[name], assignments[name]))
		}

		err = s.lotteryRepo.CreateWithParticipants(ctx, lottery, participants)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrTokenInUse) && retry < tokenInsertRetries {
			continue
		}
		return "", fmt.Errorf("create lottery: %w", err)
	}

	if input.AdminEmail != "" {
		data := &domain.AdminCredentialsEmailData{
			Email:     input.AdminEmail,
			EventName: lottery.EventName,
			EventURL:  lottery.EventURL,
			Username:  lottery.AdminUsername,
			Password:  lottery.AdminPassword,
		}
		if err := s.emailService.SendAdminCredentials(ctx, data); err != nil {
			s.logger.Warn("admin credentials email failed", "event_url", lottery.EventURL, "err", err)
		}
	}

	s.notifier.PublishAdmin(domain.KindLotteryCreated, map[string]any{
		"event_url":  lottery.EventURL,
		"event_name": lottery.EventName,
	})

	return lottery.EventURL, nil
}

func validateCreateInput(input domain.CreateLotteryInput) error {
	if strings.TrimSpace(input.EventName) == "" ||
		strings.TrimSpace(input.AdminUsername) == "" ||
		input.AdminPassword == "" {
		return domain.ErrInvalidInput
	}
	if len(input.Participants) < minParticipants {
		return domain.ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(input.Participants))
	for _, name := range input.Participants {
		if strings.TrimSpace(name) == "" {
			return domain.ErrInvalidInput
		}
		// Names must be unique per event, matching the storage constraint.
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return domain.ErrInvalidInput
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Status is a read-only projection. A missing or deleted lottery is not an
// error: it yields exists=false with empty lists.
func (s *lotteryService) Status(ctx context.Context, eventURL string) (*domain.LotteryStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	empty := &domain.LotteryStatus{Participants: []string{}, ViewedBy: []string{}}

	lottery, err := s.lotteryRepo.GetActive(ctx, eventURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return empty, nil
		}
		return nil, fmt.Errorf("get lottery: %w", err)
	}

	participants, err := s.participantRepo.ListByLotteryID(ctx, lottery.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	status := &domain.LotteryStatus{
		Exists:       true,
		EventURL:     lottery.EventURL,
		EventName:    lottery.EventName,
		Participants: make([]string, 0, len(participants)),
		ViewedBy:     []string{},
	}
	for _, p := range participants {
		status.Participants = append(status.Participants, p.Name)
		if p.Viewed {
			status.ViewedBy = append(status.ViewedBy, p.Name)
		}
	}
	status.ParticipantCount = len(status.Participants)
	status.ViewedCount = len(status.ViewedBy)
	return status, nil
}

// GetAssignment resolves the lottery (empty eventURL falls back to the most
// recent active one) and looks the participant up case-insensitively. The
// returned giver carries the stored original casing.
func (s *lotteryService) GetAssignment(ctx context.Context, name, eventURL string) (*domain.Assignment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	lottery, err := s.lotteryRepo.GetActive(ctx, eventURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get lottery: %w", err)
	}

	participant, err := s.participantRepo.GetByName(ctx, lottery.ID, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}

	assignment := &domain.Assignment{
		Giver:     participant.Name,
		Recipient: participant.Recipient,
	}
	if lottery.FamilyMode {
		assignment.Family = participant.Family
	}
	return assignment, nil
}

// MarkViewed flips the participant's viewed flag exactly once and broadcasts
// the transition. Repeated calls and unknown names return false without
// error, so polling clients never double-count.
func (s *lotteryService) MarkViewed(ctx context.Context, name, eventURL string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}

	lottery, err := s.lotteryRepo.GetActive(ctx, eventURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get lottery: %w", err)
	}

	transitioned, err := s.participantRepo.MarkViewed(ctx, lottery.ID, name, time.Now())
	if err != nil {
		return false, fmt.Errorf("mark viewed: %w", err)
	}
	if !transitioned {
		return false, nil
	}

	s.publishViewed(ctx, lottery, name)
	return true, nil
}

func (s *lotteryService) publishViewed(ctx context.Context, lottery *domain.Lottery, name string) {
	participants, err := s.participantRepo.ListByLotteryID(ctx, lottery.ID)
	if err != nil {
		s.logger.Warn("viewed broadcast skipped", "event_url", lottery.EventURL, "err", err)
		return
	}
	viewedBy := []string{}
	displayName := name
	for _, p := range participants {
		if p.Viewed {
			viewedBy = append(viewedBy, p.Name)
		}
		if strings.EqualFold(p.Name, name) {
			displayName = p.Name
		}
	}
	payload := domain.ParticipantViewedPayload{
		Name:        displayName,
		ViewedBy:    viewedBy,
		ViewedCount: len(viewedBy),
	}
	s.notifier.PublishLottery(lottery.EventURL, domain.KindParticipantViewed, payload)
	s.notifier.PublishAdmin(domain.KindParticipantViewed, payload)
}

// VerifyAdmin compares credentials verbatim against the stored values,
// scoped to active lotteries only.
func (s *lotteryService) VerifyAdmin(ctx context.Context, eventURL, username, password string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ok, err := s.lotteryRepo.VerifyAdmin(ctx, eventURL, username, password)
	if err != nil {
		return false, fmt.Errorf("verify admin: %w", err)
	}
	return ok, nil
}

// AdminLogin issues a session token scoped to the event after a successful
// credential check. Bad credentials and unknown events are indistinguishable.
func (s *lotteryService) AdminLogin(ctx context.Context, eventURL, username, password string) (string, error) {
	ok, err := s.VerifyAdmin(ctx, eventURL, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrAuthFailed
	}
	token, err := s.tokenIssuer.Issue(eventURL, adminTokenExpiry)
	if err != nil {
		return "", fmt.Errorf("issue admin token: %w", err)
	}
	return token, nil
}

// Delete removes the lottery and everything it owns. It returns false both
// for bad credentials and for a missing event, without distinguishing the two.
func (s *lotteryService) Delete(ctx context.Context, eventURL, username, password string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ok, err := s.lotteryRepo.VerifyAdmin(ctx, eventURL, username, password)
	if err != nil {
		return false, fmt.Errorf("verify admin: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := s.lotteryRepo.Delete(ctx, eventURL); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete lottery: %w", err)
	}

	s.notifier.PublishLottery(eventURL, domain.KindLotteryReset, map[string]any{"event_url": eventURL})
	s.notifier.PublishAdmin(domain.KindLotteryReset, map[string]any{"event_url": eventURL})
	return true, nil
}
