package org

import (
	"errors"
	"time"
)

// Organisation owns boards; boards own tickets. Children are listed in
// creation order and never outlive their parent.
type Organisation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Boards    []Board   `json:"boards"`
}

type Board struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Tickets   []Ticket  `json:"tickets"`
}

type Ticket struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status"`
	Visible     bool         `json:"visible"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// BoardRef is the parent summary embedded in a ticket query result.
type BoardRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TicketWithBoard is what the ticket query returns: the ticket plus the name
// of the board it lives on.
type TicketWithBoard struct {
	Ticket
	Board BoardRef `json:"board"`
}

var (
	ErrNotFound      = errors.New("not found")
	ErrScopeMismatch = errors.New("resource belongs to a different parent")
	ErrValidation    = errors.New("validation failed")
)

// Inputs use pointer fields so a merge can tell "omitted" from "explicitly
// set": nil leaves the stored value unchanged.

type OrganisationInput struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=120"`
	Timezone *string `json:"timezone"`
}

type BoardInput struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=120"`
}

type TicketInput struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Status      *string `json:"status"`
	Visible     *bool   `json:"visible"`
}
