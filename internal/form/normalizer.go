package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors returned by Normalize
var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrUnknownFormType = errors.New("invalid form type")
)

type contactFields struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// Only the presence of the sections is checked for referrals, their
// contents are rendered as submitted.
type referralFields struct {
	Participant   *Participant   `json:"participant" validate:"required"`
	Services      *Services      `json:"services" validate:"required"`
	Coordinator   *Coordinator   `json:"coordinator" validate:"required"`
	PlanManager   *PlanManager   `json:"planManager" validate:"required"`
	NDISDetails   *NDISDetails   `json:"ndisDetails" validate:"required"`
	PreferredDays *PreferredDays `json:"preferredDays" validate:"required"`
}

// Normalizer validates submissions and renders them into emails
type Normalizer struct {
	validate *validator.Validate
}

// NewNormalizer creates a new normalizer
func NewNormalizer() *Normalizer {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Normalizer{validate: validate}
}

// Normalize dispatches on the form type, checks the required fields and
// renders the subject and body. The result depends only on the submission.
func (n *Normalizer) Normalize(s *Submission) (*Email, error) {
	var (
		email *Email
		err   error
	)

	switch s.Type {
	case TypeContact:
		email, err = n.contact(s)
	case TypeReferral:
		email, err = n.referral(s)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormType, s.Type)
	}
	if err != nil {
		return nil, err
	}

	if len(s.Attachments) > 0 {
		email.Attachments = append([]Attachment(nil), s.Attachments...)
	}
	return email, nil
}

func (n *Normalizer) contact(s *Submission) (*Email, error) {
	fields := contactFields{
		Name:    s.Name,
		Email:   s.Email,
		Phone:   s.Phone,
		Message: s.Message,
	}
	if err := n.check(fields); err != nil {
		return nil, err
	}

	return &Email{
		FormType: TypeContact,
		Subject:  fmt.Sprintf("Contact Form Submission from %s", s.Name),
		Body:     RenderContact(s),
	}, nil
}

func (n *Normalizer) referral(s *Submission) (*Email, error) {
	fields := referralFields{
		Participant:   s.Participant,
		Services:      s.Services,
		Coordinator:   s.Coordinator,
		PlanManager:   s.PlanManager,
		NDISDetails:   s.NDISDetails,
		PreferredDays: s.PreferredDays,
	}
	if err := n.check(fields); err != nil {
		return nil, err
	}

	return &Email{
		FormType: TypeReferral,
		Subject:  fmt.Sprintf("Referral Form Submission for %s", s.Participant.Name),
		Body:     RenderReferral(s),
	}, nil
}

func (n *Normalizer) check(fields interface{}) error {
	err := n.validate.Struct(fields)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	missing := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		missing = append(missing, e.Field())
	}
	return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
}
