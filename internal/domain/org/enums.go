package org

import (
	"fmt"
	"sync"
)

type TicketStatus string

const (
	StatusTodo       TicketStatus = "TODO"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusDone       TicketStatus = "DONE"
)

var (
	statusMu sync.RWMutex
	statuses = map[TicketStatus]struct{}{
		StatusTodo:       {},
		StatusInProgress: {},
		StatusDone:       {},
	}
)

// RegisterTicketStatus adds a workflow state to the accepted set. The status
// enum is an open set; deployments can extend it at startup.
func RegisterTicketStatus(s TicketStatus) {
	statusMu.Lock()
	statuses[s] = struct{}{}
	statusMu.Unlock()
}

func ValidateStatus(s string) error {
	statusMu.RLock()
	_, ok := statuses[TicketStatus(s)]
	statusMu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: unknown ticket status %q", ErrValidation, s)
	}

	return nil
}

// timezones is the accepted zone enum. The API contract treats timezone as an
// enum of IANA identifiers rather than free text, so unknown zones are
// rejected at the operation boundary.
var timezones = map[string]struct{}{
	"UTC":                 {},
	"Pacific/Auckland":    {},
	"Australia/Sydney":    {},
	"Asia/Tokyo":          {},
	"Asia/Singapore":      {},
	"Asia/Kolkata":        {},
	"Europe/London":       {},
	"Europe/Paris":        {},
	"Europe/Berlin":       {},
	"Africa/Lagos":        {},
	"America/New_York":    {},
	"America/Chicago":     {},
	"America/Denver":      {},
	"America/Los_Angeles": {},
	"America/Sao_Paulo":   {},
}

func ValidateTimezone(tz string) error {
	if _, ok := timezones[tz]; !ok {
		return fmt.Errorf("%w: unknown timezone %q", ErrValidation, tz)
	}

	return nil
}
