package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quickmoney/chat-service/internal/apperr"
	"github.com/quickmoney/chat-service/internal/chat"
	"github.com/quickmoney/chat-service/internal/events"
	"github.com/quickmoney/chat-service/internal/metrics"
	"github.com/quickmoney/chat-service/internal/models"
	"github.com/quickmoney/chat-service/internal/repository"
)

// Origin says which path accepted a write. It decides whether the
// persisted-message event is dispatched: the realtime path always
// broadcasts its echo; REST and system writes broadcast only when the
// deployment runs with broadcast-on-send enabled.
type Origin int

const (
	OriginREST Origin = iota
	OriginRealtime
	OriginSystem
)

func (o Origin) String() string {
	switch o {
	case OriginRealtime:
		return "realtime"
	case OriginSystem:
		return "system"
	default:
		return "rest"
	}
}

// ChatService implements the chat operations over a message store, a
// profile reader and the persisted-message dispatcher.
type ChatService struct {
	store           repository.MessageStore
	profiles        chat.ProfileFinder
	dispatcher      *events.Dispatcher
	log             *zap.SugaredLogger
	broadcastOnSend bool
}

func NewChatService(store repository.MessageStore, profiles chat.ProfileFinder, dispatcher *events.Dispatcher, log *zap.SugaredLogger, broadcastOnSend bool) *ChatService {
	return &ChatService{
		store:           store,
		profiles:        profiles,
		dispatcher:      dispatcher,
		log:             log,
		broadcastOnSend: broadcastOnSend,
	}
}

// Send validates, derives the canonical room, persists and (depending
// on origin) dispatches the persisted-message event. The zero
// timestamp defaults to now.
func (s *ChatService) Send(ctx context.Context, senderID, receiverID, body string, ts time.Time, origin Origin) (*models.Message, error) {
	if err := chat.ValidateUserID(senderID); err != nil {
		return nil, err
	}
	if err := chat.ValidateUserID(receiverID); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, fmt.Errorf("%w: empty message body", apperr.ErrValidation)
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		RoomID:     chat.RoomKey(senderID, receiverID),
		Timestamp:  ts,
	}
	stored, err := s.store.Insert(ctx, msg)
	if err != nil {
		return nil, err
	}
	metrics.MessagesPersisted.WithLabelValues(origin.String()).Inc()

	if origin == OriginRealtime || s.broadcastOnSend {
		s.dispatcher.Dispatch(ctx, events.MessagePersisted{Message: stored})
	}
	return stored, nil
}

// History returns the deduplicated ascending history between two users
// along with the canonical room id. Both ids are validated before any
// store access.
func (s *ChatService) History(ctx context.Context, userA, userB string) ([]*models.Message, string, error) {
	if err := chat.ValidateUserID(userA); err != nil {
		return nil, "", err
	}
	if err := chat.ValidateUserID(userB); err != nil {
		return nil, "", err
	}
	roomID := chat.RoomKey(userA, userB)

	raw, err := s.store.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, "", err
	}
	return chat.Dedupe(raw), roomID, nil
}

// Conversations derives the per-counterpart conversation list for a
// user. A counterpart that fails to resolve drops its entry only.
func (s *ChatService) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	if err := chat.ValidateUserID(userID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return chat.AggregateConversations(ctx, userID, msgs, s.profiles, s.log), nil
}

// NotifyAgreement writes the paired system messages announcing a
// confirmed loan agreement, one to each party, into the borrower-lender
// room. The two writes run in parallel and are not atomic: a partial
// completion persists whatever succeeded and the call reports failure.
func (s *ChatService) NotifyAgreement(ctx context.Context, borrowerID, lenderID, borrowerBody, lenderBody string) ([]*models.Message, error) {
	if err := chat.ValidateUserID(borrowerID); err != nil {
		return nil, err
	}
	if err := chat.ValidateUserID(lenderID); err != nil {
		return nil, err
	}
	if borrowerBody == "" || lenderBody == "" {
		return nil, fmt.Errorf("%w: empty system message body", apperr.ErrValidation)
	}

	roomID := chat.RoomKey(borrowerID, lenderID)
	now := time.Now().UTC()
	pending := []*models.Message{
		{SenderID: models.SystemSender, ReceiverID: borrowerID, Body: borrowerBody, RoomID: roomID, Timestamp: now},
		{SenderID: models.SystemSender, ReceiverID: lenderID, Body: lenderBody, RoomID: roomID, Timestamp: now},
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		saved    []*models.Message
		firstErr error
	)
	for _, m := range pending {
		wg.Add(1)
		go func(m *models.Message) {
			defer wg.Done()
			stored, err := s.store.Insert(ctx, m)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			saved = append(saved, stored)
		}(m)
	}
	wg.Wait()

	metrics.MessagesPersisted.WithLabelValues(OriginSystem.String()).Add(float64(len(saved)))
	if s.broadcastOnSend {
		for _, m := range saved {
			s.dispatcher.Dispatch(ctx, events.MessagePersisted{Message: m})
		}
	}
	if firstErr != nil {
		s.log.Errorw("agreement notification partially failed",
			"roomId", roomID, "saved", len(saved), "error", firstErr)
		return saved, firstErr
	}
	return saved, nil
}
