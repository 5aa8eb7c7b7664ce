package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job is a listing posted by an employer.
type Job struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Location    string             `bson:"location" json:"location"`
	Salary      string             `bson:"salary,omitempty" json:"salary,omitempty"`
	JobType     string             `bson:"jobType,omitempty" json:"jobType,omitempty"` // full-time, part-time, casual...

	// Contact numbers, digits only.
	Phone    string `bson:"phone" json:"phone"`
	Whatsapp string `bson:"whatsapp" json:"whatsapp"`

	EmployerID   string `bson:"employerId" json:"employerId"`
	EmployerName string `bson:"employerName" json:"employerName"`

	// Only active jobs appear in listings.
	IsActive bool `bson:"isActive" json:"isActive"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DefaultEmployerName is used when a job is posted without one.
const DefaultEmployerName = "Anonymous"
