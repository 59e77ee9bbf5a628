package model

import (
	"time"
)

type ProjectStatus string

const (
	ProjectInProgress ProjectStatus = "inProgress"
	ProjectCompleted  ProjectStatus = "Completed"
)

type Project struct {
	ID              string        `json:"_id"`
	Name            string        `json:"name"`
	Slug            string        `json:"slug"`
	Description     string        `json:"description"`
	CreatedByUserID string        `json:"created_by_user_id"`
	MemberIDs       []string      `json:"member_ids"`
	Status          ProjectStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ProjectDetails is a project with its members resolved to user records.
type ProjectDetails struct {
	Project
	MembersDetails []*User `json:"members_details"`
}
