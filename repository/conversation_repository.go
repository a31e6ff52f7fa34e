package repository

import (
	"errors"
	"sync"
	"time"

	"trafficsafe-backend/models"

	"github.com/google/uuid"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrTurnInProgress       = errors.New("a message is already being processed for this conversation")
)

type conversationEntry struct {
	conv       *models.Conversation
	busy       bool
	lastActive time.Time
}

// ConversationRepository keeps widget conversations in memory. Callers never
// share a *models.Conversation with the store: reads return copies and a turn
// works on its own copy until Commit.
type ConversationRepository struct {
	mu       sync.Mutex
	entries  map[uuid.UUID]*conversationEntry
	ttl      time.Duration // 0 disables expiry
	capacity int           // 0 means unbounded
	now      func() time.Time
}

// NewConversationRepository creates an in-memory conversation store
func NewConversationRepository(ttl time.Duration, capacity int) *ConversationRepository {
	return &ConversationRepository{
		entries:  make(map[uuid.UUID]*conversationEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// WithClock overrides the clock used for expiry; intended for tests
func (r *ConversationRepository) WithClock(now func() time.Time) *ConversationRepository {
	r.now = now
	return r
}

// Create stores a new conversation, evicting stale or least recently active
// ones when the store is full
func (r *ConversationRepository) Create(conv *models.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.capacity > 0 && len(r.entries) >= r.capacity {
		r.sweep(now)
		for len(r.entries) >= r.capacity {
			if !r.evictOldest() {
				break
			}
		}
	}

	r.entries[conv.ID] = &conversationEntry{
		conv:       conv.Clone(),
		lastActive: now,
	}
}

// Get returns a copy of the conversation
func (r *ConversationRepository) Get(id uuid.UUID) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return entry.conv.Clone(), nil
}

// BeginTurn reserves the conversation for one resolver turn and returns a
// working copy. A second BeginTurn before Commit or Abort fails with
// ErrTurnInProgress.
func (r *ConversationRepository) BeginTurn(id uuid.UUID) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	if entry.busy {
		return nil, ErrTurnInProgress
	}
	entry.busy = true
	entry.lastActive = r.now()
	return entry.conv.Clone(), nil
}

// Commit stores the result of a turn and releases the reservation
func (r *ConversationRepository) Commit(conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[conv.ID]
	if !ok {
		return ErrConversationNotFound
	}
	entry.conv = conv.Clone()
	entry.busy = false
	entry.lastActive = r.now()
	return nil
}

// Abort releases a reservation without storing anything
func (r *ConversationRepository) Abort(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[id]; ok {
		entry.busy = false
	}
}

// Delete discards a conversation
func (r *ConversationRepository) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return ErrConversationNotFound
	}
	delete(r.entries, id)
	return nil
}

// Sweep drops conversations idle for longer than the TTL and returns how
// many were removed. Conversations with a turn in progress are kept.
func (r *ConversationRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweep(r.now())
}

// Len returns the number of stored conversations
func (r *ConversationRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *ConversationRepository) sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	removed := 0
	for id, entry := range r.entries {
		if !entry.busy && now.Sub(entry.lastActive) > r.ttl {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

func (r *ConversationRepository) evictOldest() bool {
	var oldestID uuid.UUID
	var oldest time.Time
	found := false
	for id, entry := range r.entries {
		if entry.busy {
			continue
		}
		if !found || entry.lastActive.Before(oldest) {
			oldestID, oldest, found = id, entry.lastActive, true
		}
	}
	if found {
		delete(r.entries, oldestID)
	}
	return found
}
