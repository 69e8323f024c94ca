package users

import "time"

// User represents an account record managed by operators.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Form field names shared by the service, the handler and the templates.
const (
	FieldName                 = "name"
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
)

// CreateInput carries the submitted create form.
type CreateInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// UpdateInput carries the submitted edit form. An empty Password keeps the
// stored hash.
type UpdateInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// FormField describes one input of a create or edit form.
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Form is what the create and edit pages render. User is nil on create and
// never carries a password hash.
type Form struct {
	Fields []FormField `json:"fields"`
	User   *User       `json:"user,omitempty"`
}

func createFields() []FormField {
	return []FormField{
		{Name: FieldName, Label: "Name", Type: "text", Required: true},
		{Name: FieldEmail, Label: "Email", Type: "email", Required: true},
		{Name: FieldPassword, Label: "Password", Type: "password", Required: true},
		{Name: FieldPasswordConfirmation, Label: "Confirm password", Type: "password", Required: true},
	}
}

func editFields() []FormField {
	return []FormField{
		{Name: FieldName, Label: "Name", Type: "text", Required: true},
		{Name: FieldEmail, Label: "Email", Type: "email", Required: true},
		{Name: FieldPassword, Label: "New password", Type: "password"},
		{Name: FieldPasswordConfirmation, Label: "Confirm new password", Type: "password"},
	}
}
