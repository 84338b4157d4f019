package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"ikshan/internal/models"
)

func TestSessionStoreCreateAndGet(t *testing.T) {
	store := NewSessionStore(time.Minute)

	session := store.Create()
	if session.ID == "" {
		t.Fatal("session must get an ID")
	}
	if session.Stage != models.StageWelcome {
		t.Errorf("new session stage = %s", session.Stage)
	}

	got, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("got %s want %s", got.ID, session.ID)
	}

	if store.Count() != 1 {
		t.Errorf("Count = %d", store.Count())
	}
}

func TestSessionStoreUnknownID(t *testing.T) {
	store := NewSessionStore(time.Minute)
	if _, err := store.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	err := store.WithSession("nope", func(*models.FunnelSession) error { return nil })
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("WithSession on unknown ID: %v", err)
	}
}

func TestSessionStoreRejectsOverlappingDispatch(t *testing.T) {
	store := NewSessionStore(time.Minute)
	session := store.Create()

	entered := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.WithSession(session.ID, func(*models.FunnelSession) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	err := store.WithSession(session.ID, func(*models.FunnelSession) error { return nil })
	if !errors.Is(err, ErrActionInFlight) {
		t.Errorf("expected ErrActionInFlight, got %v", err)
	}
	close(release)
	wg.Wait()

	// lock released, next dispatch goes through
	if err := store.WithSession(session.ID, func(*models.FunnelSession) error { return nil }); err != nil {
		t.Errorf("dispatch after release: %v", err)
	}
}

func TestSessionStoreSaveTouchesUpdatedAt(t *testing.T) {
	store := NewSessionStore(time.Minute)
	session := store.Create()
	before := session.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	store.WithSession(session.ID, func(s *models.FunnelSession) error {
		s.Stage = models.StageDomainSelect
		return nil
	})

	got, _ := store.Get(session.ID)
	if !got.UpdatedAt.After(before) {
		t.Error("UpdatedAt not refreshed by WithSession")
	}
	if got.Stage != models.StageDomainSelect {
		t.Error("mutation not persisted")
	}
}
