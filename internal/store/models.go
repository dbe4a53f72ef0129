package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

const (
	RoleStudent = "student"
	RoleCompany = "company"
	RoleAdmin   = "admin"

	InternshipOpen   = "open"
	InternshipClosed = "closed"

	ApplicationPending = "pending"

	// Embedding owner types.
	OwnerInternship = "internship_description"
	OwnerStudent    = "student_resume"

	NotificationTopicMatch  = "internship_topic_match"
	NotificationCompanyPost = "company_new_internship"
)

// ValidRole reports whether role is one the users table accepts.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Student is a student user together with their resume, if any.
type Student struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name,omitempty"`
	ResumeText  string     `json:"resume_text,omitempty"`
	UpdatedAt   *time.Time `json:"resume_updated_at,omitempty"`
}

type Internship struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	Location     string    `json:"location,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type Application struct {
	ID           string    `json:"id"`
	InternshipID string    `json:"internship_id"`
	StudentID    string    `json:"student_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type Topic struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Category      string    `json:"category"`
	Description   string    `json:"description,omitempty"`
	FollowerCount int       `json:"follower_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// InternshipTopic is a topic attached to an internship with its relevance.
type InternshipTopic struct {
	Topic
	Relevance float64 `json:"relevance_score"`
}

type NotificationPayload struct {
	InternshipID   string  `json:"internship_id"`
	CompanyID      string  `json:"company_id,omitempty"`
	TopicID        int64   `json:"topic_id,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

type Notification struct {
	ID          string              `json:"id"`
	RecipientID string              `json:"recipient_id"`
	Kind        string              `json:"kind"`
	Payload     NotificationPayload `json:"payload"`
	Read        bool                `json:"read"`
	CreatedAt   time.Time           `json:"created_at"`
}

// RankedID is one result of a similarity ranking.
type RankedID struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}
