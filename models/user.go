package models

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

// User carries a user's identity fields between layers.
// Every field is independently optional: a zero sql.Null means "not set".
// The record performs no I/O and is not safe for concurrent mutation.
type User struct {
	ID       sql.Null[uint64]
	Name     sql.Null[string]
	Email    sql.Null[string]
	Password sql.Null[string]
}

// NewUser builds a not-yet-persisted user. ID stays unset.
// The positional order (name, password, email) is kept for existing callers.
func NewUser(name, password, email string) User {
	return User{
		Name:     present(name),
		Email:    present(email),
		Password: present(password),
	}
}

// NewUserWithID builds a user with all four fields set.
func NewUserWithID(id uint64, name, password, email string) User {
	u := NewUser(name, password, email)
	u.ID = present(id)
	return u
}

func (u *User) SetID(id uint64)         { u.ID = present(id) }
func (u *User) SetName(name string)     { u.Name = present(name) }
func (u *User) SetEmail(email string)   { u.Email = present(email) }
func (u *User) SetPassword(pass string) { u.Password = present(pass) }

func present[T any](v T) sql.Null[T] {
	return sql.Null[T]{V: v, Valid: true}
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation — opt-in, never run by constructors or setters
// ─────────────────────────────────────────────────────────────────────────────

// userInput is the shape checked by Validate. Absent fields become "".
type userInput struct {
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,email"`
}

var validate = validator.New()

// Validate reports whether the record is fit to hand to a persistence layer:
// name set and at most 100 characters, email set and well-formed.
// The password is not inspected.
func (u User) Validate() error {
	var in userInput
	if u.Name.Valid {
		in.Name = u.Name.V
	}
	if u.Email.Valid {
		in.Email = u.Email.V
	}
	return formatValidationError(validate.Struct(in))
}

func formatValidationError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("models/user: %w", err)
	}
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "email":
			messages = append(messages, field+" must be a valid email")
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		default:
			messages = append(messages, field+" is invalid")
		}
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, ", "))
}

// ─────────────────────────────────────────────────────────────────────────────
// Redaction
// ─────────────────────────────────────────────────────────────────────────────

const redacted = "[REDACTED]"

// LogValue keeps the password out of structured logs.
func (u User) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 4)
	if u.ID.Valid {
		attrs = append(attrs, slog.Uint64("id", u.ID.V))
	}
	if u.Name.Valid {
		attrs = append(attrs, slog.String("name", u.Name.V))
	}
	if u.Email.Valid {
		attrs = append(attrs, slog.String("email", u.Email.V))
	}
	if u.Password.Valid {
		attrs = append(attrs, slog.String("password", redacted))
	}
	return slog.GroupValue(attrs...)
}

func (u User) String() string {
	var b strings.Builder
	b.WriteString("User{")
	sep := ""
	field := func(name, val string) {
		b.WriteString(sep)
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(val)
		sep = ", "
	}
	if u.ID.Valid {
		field("ID", fmt.Sprint(u.ID.V))
	}
	if u.Name.Valid {
		field("Name", fmt.Sprintf("%q", u.Name.V))
	}
	if u.Email.Valid {
		field("Email", fmt.Sprintf("%q", u.Email.V))
	}
	if u.Password.Valid {
		field("Password", redacted)
	}
	b.WriteString("}")
	return b.String()
}

var (
	_ slog.LogValuer = User{}
	_ fmt.Stringer   = User{}
)
