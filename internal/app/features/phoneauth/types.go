package phoneauth

import "github.com/dalemusser/kaziocha/internal/domain/models"

type checkPhoneInput struct {
	Phone string `json:"phone" validate:"required,phone" label:"Phone number"`
}

type signupInput struct {
	Name           string `json:"name" validate:"required,max=100" label:"Name"`
	Phone          string `json:"phone" validate:"required,phone" label:"Phone number"`
	Location       string `json:"location" validate:"max=100" label:"Location"`
	Password       string `json:"password" validate:"required" label:"Password"`
	Role           string `json:"role" validate:"required,role" label:"Role"`
	Specialization string `json:"specialization" validate:"max=100" label:"Specialization"`
	JobType        string `json:"jobType" validate:"max=100" label:"Job type"`
}

type signinInput struct {
	Phone    string `json:"phone" validate:"required" label:"Phone number"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type profileInput struct {
	Name           string  `json:"name" validate:"required,max=100" label:"Name"`
	Location       string  `json:"location" validate:"max=100" label:"Location"`
	Specialization *string `json:"specialization"`
	JobType        *string `json:"jobType"`
}

type passwordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required" label:"Current password"`
	NewPassword     string `json:"newPassword" validate:"required" label:"New password"`
}

type sessionResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

type userResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
}
