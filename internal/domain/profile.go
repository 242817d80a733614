package domain

import "time"

// Asset is an uploaded document or image belonging to a profile.
type Asset struct {
	URL      string `json:"url" dynamodbav:"url"`
	Filename string `json:"filename" dynamodbav:"filename"`
	MimeType string `json:"mime_type,omitempty" dynamodbav:"mime_type"`
	Size     int64  `json:"size,omitempty" dynamodbav:"size"`
}

// TeacherProfile is the public-facing listing a tutor or teacher maintains.
// Keyed by the owning user id; at most one profile per user.
type TeacherProfile struct {
	UserID          string   `json:"user_id" dynamodbav:"user_id"`
	Bio             string   `json:"bio" dynamodbav:"bio"`
	ExperienceYears int      `json:"experience_years" dynamodbav:"experience_years"`
	Subjects        []string `json:"subjects" dynamodbav:"subjects"`
	Classes         []string `json:"classes" dynamodbav:"classes"`
	Languages       []string `json:"languages" dynamodbav:"languages"`
	City            string   `json:"city" dynamodbav:"city"`
	ExpectedSalary  int      `json:"expected_salary" dynamodbav:"expected_salary"`
	Availability    string   `json:"availability" dynamodbav:"availability"`

	Resume       *Asset `json:"resume,omitempty" dynamodbav:"resume"`
	Photo        *Asset `json:"photo,omitempty" dynamodbav:"photo"`
	DemoVideoURL string `json:"demo_video_url,omitempty" dynamodbav:"demo_video_url"`

	IsPublic bool     `json:"is_public" dynamodbav:"is_public"`
	Tags     []string `json:"tags" dynamodbav:"tags"`

	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type UpsertTeacherProfileRequest struct {
	Bio             *string   `json:"bio"`
	ExperienceYears *int      `json:"experience_years"`
	Subjects        []string  `json:"subjects"`
	Classes         []string  `json:"classes"`
	Languages       []string  `json:"languages"`
	City            *string   `json:"city"`
	ExpectedSalary  *int      `json:"expected_salary"`
	Availability    *string   `json:"availability"`
	DemoVideoURL    *string   `json:"demo_video_url"`
	IsPublic        *bool     `json:"is_public"`
	Tags            []string  `json:"tags"`
}
