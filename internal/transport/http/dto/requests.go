package dto

import (
	"time"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/identity"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/quiz"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// -------- Registration --------

type RegisterStudentRequest struct {
	Email             string `json:"email" validate:"required,email,max=255"`
	Password          string `json:"password" validate:"required,min=6,max=128"`
	AcademicLevel     string `json:"academic_level" validate:"omitempty,min=2,max=64"`
	SchoolInstitution string `json:"school_institution" validate:"omitempty,min=2,max=255"`
	IsActive          *bool  `json:"is_active"`
}

func (r RegisterStudentRequest) ToInput() identity.RegisterInput {
	return identity.RegisterInput{
		Email:    r.Email,
		Password: r.Password,
		Roles:    []string{string(domain.RoleStudent)},
		Profile: domain.Profile{
			AcademicLevel:     r.AcademicLevel,
			SchoolInstitution: r.SchoolInstitution,
		},
		IsActive: r.IsActive,
	}
}

type RegisterTeacherRequest struct {
	RegisterStudentRequest
	TeacherProfile
}

func (r RegisterTeacherRequest) ToInput() identity.RegisterInput {
	in := r.RegisterStudentRequest.ToInput()
	in.Roles = []string{string(domain.RoleTeacher)}
	r.TeacherProfile.applyTo(&in.Profile)
	return in
}

// TeacherProfile holds the attributes only the teacher form collects.
type TeacherProfile struct {
	YearsOfExperience *int     `json:"years_of_experience" validate:"omitempty,gte=0,lte=80"`
	Location          string   `json:"location" validate:"max=255"`
	PhoneNumber       string   `json:"phone_number" validate:"max=32"`
	TeachingSubjects  []string `json:"teaching_subjects" validate:"omitempty,max=20,dive,required,max=64"`
	Bio               string   `json:"bio" validate:"max=2000"`
}

func (t TeacherProfile) applyTo(p *domain.Profile) {
	p.YearsOfExperience = t.YearsOfExperience
	p.Location = t.Location
	p.PhoneNumber = t.PhoneNumber
	p.TeachingSubjects = t.TeachingSubjects
	p.Bio = t.Bio
}

// -------- Login / OTP --------

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OTP format is left to the lifecycle manager so a malformed code reads as a mismatch.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,max=16"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,max=16"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

// -------- Profile / admin --------

type UpdateProfileRequest struct {
	AcademicLevel     string `json:"academic_level" validate:"omitempty,min=2,max=64"`
	SchoolInstitution string `json:"school_institution" validate:"omitempty,min=2,max=255"`
	TeacherProfile
}

func (r UpdateProfileRequest) ToProfile() domain.Profile {
	p := domain.Profile{
		AcademicLevel:     r.AcademicLevel,
		SchoolInstitution: r.SchoolInstitution,
	}
	r.TeacherProfile.applyTo(&p)
	return p
}

type SetStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,max=3,dive,role"`
}

// -------- Quiz --------

type QuestionRequest struct {
	Text          string   `json:"text" validate:"required,max=1000"`
	Options       []string `json:"options" validate:"required,min=2,max=10,dive,required,max=500"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
}

type CreateQuizRequest struct {
	Title           string            `json:"title" validate:"required,max=200"`
	Description     string            `json:"description" validate:"max=2000"`
	ClassLevel      string            `json:"class_level" validate:"required,class_level"`
	StartTime       time.Time         `json:"start_time" validate:"required"`
	DurationMinutes int               `json:"duration_minutes" validate:"required,gt=0,lte=600"`
	Questions       []QuestionRequest `json:"questions" validate:"required,min=1,max=200,dive"`
}

func (r CreateQuizRequest) ToInput() quiz.CreateInput {
	qs := make([]domain.Question, len(r.Questions))
	for i, q := range r.Questions {
		qs[i] = domain.Question{Text: q.Text, Options: q.Options, CorrectAnswer: q.CorrectAnswer}
	}
	return quiz.CreateInput{
		Title:           r.Title,
		Description:     r.Description,
		ClassLevel:      r.ClassLevel,
		StartTime:       r.StartTime,
		DurationMinutes: r.DurationMinutes,
		Questions:       qs,
	}
}
