package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/energypatrikhu/obs-ui/internal/domain"
)

type published struct {
	Channel string
	Payload any
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (m *mockPublisher) Publish(_ context.Context, channel string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, published{Channel: channel, Payload: payload})
	return nil
}

func (m *mockPublisher) getMessages() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]published, len(m.messages))
	copy(result, m.messages)
	return result
}

type mockWidgetStore struct {
	mu       sync.Mutex
	settings domain.WidgetSettings
	saves    int
	getErr   error
	saveErr  error
}

func newMockWidgetStore() *mockWidgetStore {
	return &mockWidgetStore{settings: domain.DefaultWidgetSettings()}
}

func (m *mockWidgetStore) GetWidgetSettings(context.Context) (domain.WidgetSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.WidgetSettings{}, m.getErr
	}
	s := m.settings
	s.DisabledWidgets = append([]string{}, m.settings.DisabledWidgets...)
	return s, nil
}

func (m *mockWidgetStore) SaveWidgetSettings(_ context.Context, settings domain.WidgetSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.settings = settings
	m.saves++
	return nil
}

func notification(subType string, event any) domain.Notification {
	raw, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	return domain.Notification{
		Subscription: domain.Subscription{ID: "sub-1", Type: subType, Version: "1", Status: domain.SubscriptionEnabled},
		Event:        raw,
	}
}

var errBoom = errors.New("boom")
