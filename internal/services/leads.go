package services

import (
	"context"
	"log"
	"time"

	"ikshan/internal/database"
)

const leadWriteTimeout = 5 * time.Second

// LeadService persists captured leads. Writes are fire-and-forget: the
// funnel must never stall or fail because the lead store is down.
type LeadService struct {
	db *database.DB
}

func NewLeadService(db *database.DB) *LeadService {
	return &LeadService{db: db}
}

// Record writes one lead asynchronously. Errors are logged only.
func (s *LeadService) Record(event string, payload map[string]string) {
	if s == nil || s.db == nil {
		return
	}

	lead := &database.Lead{
		Event:       event,
		Name:        payload["name"],
		Email:       payload["email"],
		Domain:      payload["domain"],
		Subdomain:   payload["subdomain"],
		Role:        payload["role"],
		Requirement: payload["requirement"],
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), leadWriteTimeout)
		defer cancel()
		if err := s.db.InsertLead(ctx, lead); err != nil {
			log.Printf("⚠️ [LEADS] failed to record lead %s: %v", lead.Email, err)
			return
		}
		log.Printf("💾 [LEADS] recorded %s lead for %s", event, lead.Email)
	}()
}
