package handlers

import (
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/pushp314/socialhub-backend/internal/config"
	"github.com/pushp314/socialhub-backend/internal/database"
	"github.com/pushp314/socialhub-backend/internal/models"
)

// SetupTestDB initializes an in-memory SQLite DB for testing. The cache is
// shared within the test binary, so tests use unique IDs.
func SetupTestDB() {
	db, _ := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	database.DB = db
	database.DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Reaction{},
		&models.Notification{},
	)

	if config.AppConfig == nil {
		config.AppConfig = &config.Config{JWTSecret: "test-secret"}
	}
}

type emittedEvent struct {
	room  string
	event string
	args  []interface{}
}

// fakeEmitter records room broadcasts in place of the socket server.
type fakeEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (f *fakeEmitter) BroadcastToRoom(namespace string, room, event string, args ...interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{room: room, event: event, args: args})
	return true
}

func (f *fakeEmitter) count(room, event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.room == room && e.event == event {
			n++
		}
	}
	return n
}

func (f *fakeEmitter) countEvent(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func (f *fakeEmitter) last(room, event string) (emittedEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].room == room && f.events[i].event == event {
			return f.events[i], true
		}
	}
	return emittedEvent{}, false
}
