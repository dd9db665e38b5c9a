package core

import (
	"path/filepath"
	"strings"
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleStaff, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Actor is the verified identity a request acts as. It comes from the
// auth layer; nothing in this package checks credentials.
type Actor struct {
	ID    string
	Email string
	Role  Role
}

func (a Actor) isStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusCollected  Status = "collected"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusInProgress, StatusReady, StatusCollected:
		return Status(s), true
	}
	return "", false
}

// ActiveStatuses are the statuses that occupy a pickup slot and count
// against pool capacity.
var ActiveStatuses = []Status{StatusInProgress, StatusReady}

type ColorMode string

const (
	ColorBW    ColorMode = "bw"
	ColorColor ColorMode = "color"
)

type Sided string

const (
	SidedSingle Sided = "single"
	SidedDouble Sided = "double"
)

type Preferences struct {
	Copies       int       `json:"copies"`
	ColorMode    ColorMode `json:"color_mode"`
	Sided        Sided     `json:"sided"`
	Stapled      bool      `json:"stapled"`
	Instructions string    `json:"instructions,omitempty"`
}

// File is one stored attachment. Path addresses the blob in storage;
// URL is what gets handed to clients.
type File struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

type Job struct {
	ID             string      `json:"id"`
	SubmitterID    string      `json:"submitter_id"`
	SubmitterEmail string      `json:"submitter_email"`
	SubmitterRole  Role        `json:"submitter_role"`
	SlotID         string      `json:"slot_id"`
	Files          []File      `json:"files"`
	Preferences    Preferences `json:"preferences"`
	Status         Status      `json:"status"`
	SubmittedAt    time.Time   `json:"submitted_at"`
}

var allowedFileTypes = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

// AllowedFileType reports whether the file's declared type, taken from
// its extension, is accepted for printing.
func AllowedFileType(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return allowedFileTypes[ext]
}

type Operation string

const (
	OpSubmit    Operation = "submit"
	OpDelete    Operation = "delete"
	OpViewQueue Operation = "view_queue"
	OpView      Operation = "view"
	OpSweep     Operation = "sweep"
)

// CanPerform is the single authorization predicate for job operations.
// job may be nil for operations that do not target a specific job.
func CanPerform(actor Actor, op Operation, job *Job) bool {
	switch op {
	case OpSubmit:
		return actor.Role == RoleStudent || actor.Role == RoleTeacher
	case OpDelete, OpViewQueue, OpSweep:
		return actor.isStaff()
	case OpView:
		if actor.isStaff() {
			return true
		}
		return job != nil && job.SubmitterID == actor.ID
	}
	return false
}

type transition struct {
	From Status
	To   Status
}

type transitionRule func(actor Actor, job *Job) bool

func staffOnly(actor Actor, _ *Job) bool {
	return actor.isStaff()
}

func staffOrSubmitter(actor Actor, job *Job) bool {
	return actor.isStaff() || actor.ID == job.SubmitterID
}

// transitions is the closed set of legal status changes. A pair absent
// from this table is rejected regardless of who asks.
var transitions = map[transition]transitionRule{
	{StatusInProgress, StatusReady}: staffOnly,
	{StatusReady, StatusCollected}:  staffOrSubmitter,
}

// CheckTransition validates that moving job to target is legal and that
// actor is allowed to do it. It returns ErrInvalidTransition for a pair
// outside the table and ErrForbidden for an unauthorized actor.
func CheckTransition(actor Actor, job *Job, target Status) error {
	rule, ok := transitions[transition{From: job.Status, To: target}]
	if !ok {
		return ErrInvalidTransition
	}
	if !rule(actor, job) {
		return ErrForbidden
	}
	return nil
}
