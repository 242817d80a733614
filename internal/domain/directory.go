package domain

import "time"

// Directory statuses for student and parent records.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Student is a directory record of a pupil looking for tuition.
// Distinct from a student *account*: directory rows need no credentials.
type Student struct {
	StudentID string  `json:"id" dynamodbav:"student_id"`
	Name      string  `json:"name" dynamodbav:"name"`
	Email     string  `json:"email,omitempty" dynamodbav:"email"`
	Phone     string  `json:"phone,omitempty" dynamodbav:"phone"`
	Class     string  `json:"class" dynamodbav:"class"`
	School    string  `json:"school,omitempty" dynamodbav:"school"`
	Board     string  `json:"board,omitempty" dynamodbav:"board"` // CBSE / ICSE / STATE
	Address   Address `json:"address" dynamodbav:"address"`
	Status    string  `json:"status" dynamodbav:"status"`

	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateStudentRequest struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"omitempty,email"`
	Phone   string  `json:"phone"`
	Class   string  `json:"class" validate:"required"`
	School  string  `json:"school"`
	Board   string  `json:"board"`
	Address Address `json:"address"`
}

// Parent is a directory record of a guardian, optionally linked to the
// student records of their children.
type Parent struct {
	ParentID    string   `json:"id" dynamodbav:"parent_id"`
	Name        string   `json:"name" dynamodbav:"name"`
	Email       string   `json:"email" dynamodbav:"email"`
	Phone       string   `json:"phone" dynamodbav:"phone"`
	ChildrenIDs []string `json:"children_ids,omitempty" dynamodbav:"children_ids"`
	Status      string   `json:"status" dynamodbav:"status"`

	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateParentRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}
