package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
	"github.com/flashbox/flashbox-api/internal/store"
)

// memCardStore is an in-memory store.CardStore for service tests.
type memCardStore struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*domain.Card

	// getErr, when set, is returned by GetByID.
	getErr error
	// updateErr, when set, is returned by UpdateScheduling.
	updateErr error
}

func newMemCardStore() *memCardStore {
	return &memCardStore{cards: make(map[uuid.UUID]*domain.Card)}
}

func (m *memCardStore) put(card *domain.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *card
	m.cards[card.ID] = &copied
}

func (m *memCardStore) Create(_ context.Context, card *domain.Card) error {
	m.put(card)
	return nil
}

func (m *memCardStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	card, ok := m.cards[id]
	if !ok || card.DeletedAt != nil {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (m *memCardStore) ListByDeck(_ context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Card
	for _, card := range m.cards {
		if card.DeckID == deckID && card.DeletedAt == nil {
			copied := *card
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memCardStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Card
	for _, card := range m.cards {
		if card.UserID == userID && card.DeletedAt == nil {
			copied := *card
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memCardStore) ListDue(_ context.Context, userID uuid.UUID, asOf time.Time) ([]*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Card
	for _, card := range m.cards {
		if card.UserID == userID && card.DeletedAt == nil && card.IsDue(asOf) {
			copied := *card
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memCardStore) ListNew(_ context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Card
	for _, card := range m.cards {
		if card.UserID == userID && card.DeletedAt == nil && card.IsNew() {
			copied := *card
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memCardStore) UpdateContent(_ context.Context, id uuid.UUID, front, back string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	card.Front = front
	card.Back = back
	return nil
}

func (m *memCardStore) UpdateScheduling(_ context.Context, card *domain.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.cards[card.ID]
	if !ok {
		return store.ErrCardNotFound
	}
	stored.Box = card.Box
	stored.DueDate = card.DueDate
	stored.UpdatedAt = card.UpdatedAt
	return nil
}

func (m *memCardStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	now := time.Now().UTC()
	card.DeletedAt = &now
	return nil
}

func (m *memCardStore) WithTx(_ *sql.Tx) store.CardStore { return m }

// memSettingsStore is an in-memory store.SettingsStore for service tests.
type memSettingsStore struct {
	mu       sync.Mutex
	settings map[uuid.UUID]*domain.SrsSettings
}

func newMemSettingsStore() *memSettingsStore {
	return &memSettingsStore{settings: make(map[uuid.UUID]*domain.SrsSettings)}
}

func (m *memSettingsStore) GetByUser(_ context.Context, userID uuid.UUID) (*domain.SrsSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	settings, ok := m.settings[userID]
	if !ok {
		return nil, store.ErrSettingsNotFound
	}
	copied := *settings
	return &copied, nil
}

func (m *memSettingsStore) Upsert(_ context.Context, settings *domain.SrsSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *settings
	m.settings[settings.UserID] = &copied
	return nil
}

func (m *memSettingsStore) ListNotificationEnabled(_ context.Context) ([]*domain.SrsSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.SrsSettings
	for _, settings := range m.settings {
		if settings.NotificationEnabled {
			copied := *settings
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memSettingsStore) WithTx(_ *sql.Tx) store.SettingsStore { return m }

// memDeckStore is an in-memory store.DeckStore for service tests.
type memDeckStore struct {
	mu    sync.Mutex
	decks map[uuid.UUID]*domain.Deck
}

func newMemDeckStore() *memDeckStore {
	return &memDeckStore{decks: make(map[uuid.UUID]*domain.Deck)}
}

func (m *memDeckStore) Create(_ context.Context, deck *domain.Deck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.decks {
		if existing.UserID == deck.UserID && existing.Name == deck.Name && existing.DeletedAt == nil {
			return store.ErrDeckNameExists
		}
	}
	copied := *deck
	m.decks[deck.ID] = &copied
	return nil
}

func (m *memDeckStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deck, ok := m.decks[id]
	if !ok || deck.DeletedAt != nil {
		return nil, store.ErrDeckNotFound
	}
	copied := *deck
	return &copied, nil
}

func (m *memDeckStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Deck
	for _, deck := range m.decks {
		if deck.UserID == userID && deck.DeletedAt == nil {
			copied := *deck
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memDeckStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	deck, ok := m.decks[id]
	if !ok {
		return store.ErrDeckNotFound
	}
	now := time.Now().UTC()
	deck.DeletedAt = &now
	return nil
}

func (m *memDeckStore) WithTx(_ *sql.Tx) store.DeckStore { return m }
