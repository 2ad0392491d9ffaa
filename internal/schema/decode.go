package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/enums"
)

// DecodeProfile parses and validates a persisted profile document.
func DecodeProfile(raw []byte) (models.Profile, error) {
	var candidate struct {
		Email          *string    `json:"email"`
		Name           *string    `json:"name"`
		Expertise      *string    `json:"expertise"`
		ExpertiseYears *float64   `json:"expertiseYears"`
		Interest       *string    `json:"interest"`
		InterestYears  *float64   `json:"interestYears"`
		PhoneNumber    *string    `json:"phoneNumber"`
		Location       *string    `json:"location"`
		CreatedAt      *time.Time `json:"createdAt"`
		UpdatedAt      *time.Time `json:"updatedAt"`
	}
	var zero models.Profile
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return zero, err
	}

	if candidate.Name == nil || strings.TrimSpace(*candidate.Name) == "" {
		return zero, fieldErr("profile", "name", "must be a non-empty string")
	}
	if candidate.Email == nil || !strings.Contains(*candidate.Email, "@") {
		return zero, fieldErr("profile", "email", "must be a string containing @")
	}
	if candidate.Expertise == nil {
		return zero, fieldErr("profile", "expertise", "is required")
	}
	if candidate.Interest == nil {
		return zero, fieldErr("profile", "interest", "is required")
	}
	if candidate.PhoneNumber == nil {
		return zero, fieldErr("profile", "phoneNumber", "is required")
	}
	if candidate.ExpertiseYears == nil || *candidate.ExpertiseYears < 0 {
		return zero, fieldErr("profile", "expertiseYears", "must be a number >= 0")
	}
	if candidate.InterestYears == nil || *candidate.InterestYears < 0 {
		return zero, fieldErr("profile", "interestYears", "must be a number >= 0")
	}

	return models.Profile{
		Email:          *candidate.Email,
		Name:           *candidate.Name,
		Expertise:      *candidate.Expertise,
		ExpertiseYears: *candidate.ExpertiseYears,
		Interest:       *candidate.Interest,
		InterestYears:  *candidate.InterestYears,
		PhoneNumber:    *candidate.PhoneNumber,
		Location:       candidate.Location,
		CreatedAt:      candidate.CreatedAt,
		UpdatedAt:      candidate.UpdatedAt,
	}, nil
}

// DecodeUser parses and validates a persisted user document. The email is
// not required to contain @ here; the auth layer enforces that on input.
func DecodeUser(raw []byte) (models.User, error) {
	var candidate struct {
		ID            *string    `json:"id"`
		Email         *string    `json:"email"`
		Password      *string    `json:"password"`
		IsTestAccount *bool      `json:"isTestAccount"`
		CreatedAt     *time.Time `json:"createdAt"`
	}
	var zero models.User
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return zero, err
	}

	if candidate.Email == nil || *candidate.Email == "" {
		return zero, fieldErr("user", "email", "must be a non-empty string")
	}
	if candidate.ID == nil || *candidate.ID == "" {
		return zero, fieldErr("user", "id", "must be a non-empty string")
	}

	user := models.User{
		ID:    *candidate.ID,
		Email: *candidate.Email,
	}
	if candidate.Password != nil {
		user.PasswordHash = *candidate.Password
	}
	if candidate.IsTestAccount != nil {
		user.IsTestAccount = *candidate.IsTestAccount
	}
	if candidate.CreatedAt != nil {
		user.CreatedAt = *candidate.CreatedAt
	}
	return user, nil
}

// DecodeMentorshipRequest parses and validates a persisted request document.
func DecodeMentorshipRequest(raw []byte) (models.MentorshipRequest, error) {
	var candidate struct {
		ID             *string    `json:"id"`
		RequesterEmail *string    `json:"requesterEmail"`
		RequesterName  *string    `json:"requesterName"`
		MentorEmail    *string    `json:"mentorEmail"`
		MentorName     *string    `json:"mentorName"`
		Note           *string    `json:"note"`
		Status         *string    `json:"status"`
		ResponseNote   *string    `json:"responseNote"`
		CreatedAt      *time.Time `json:"createdAt"`
		RespondedAt    *time.Time `json:"respondedAt"`
	}
	var zero models.MentorshipRequest
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return zero, err
	}

	if candidate.ID == nil || *candidate.ID == "" {
		return zero, fieldErr("mentorshipRequest", "id", "must be a non-empty string")
	}
	if candidate.RequesterEmail == nil {
		return zero, fieldErr("mentorshipRequest", "requesterEmail", "is required")
	}
	if candidate.RequesterName == nil {
		return zero, fieldErr("mentorshipRequest", "requesterName", "is required")
	}
	if candidate.MentorEmail == nil {
		return zero, fieldErr("mentorshipRequest", "mentorEmail", "is required")
	}
	if candidate.MentorName == nil {
		return zero, fieldErr("mentorshipRequest", "mentorName", "is required")
	}
	if candidate.Note == nil {
		return zero, fieldErr("mentorshipRequest", "note", "is required")
	}
	if candidate.Status == nil || !enums.RequestStatus(*candidate.Status).IsValid() {
		return zero, fieldErr("mentorshipRequest", "status", "must be one of pending, accepted, declined")
	}
	if candidate.CreatedAt == nil {
		return zero, fieldErr("mentorshipRequest", "createdAt", "is required")
	}

	return models.MentorshipRequest{
		ID:             *candidate.ID,
		RequesterEmail: *candidate.RequesterEmail,
		RequesterName:  *candidate.RequesterName,
		MentorEmail:    *candidate.MentorEmail,
		MentorName:     *candidate.MentorName,
		Note:           *candidate.Note,
		Status:         enums.RequestStatus(*candidate.Status),
		ResponseNote:   candidate.ResponseNote,
		CreatedAt:      *candidate.CreatedAt,
		RespondedAt:    candidate.RespondedAt,
	}, nil
}

// IsFieldError reports whether err is a shape rejection rather than a
// decode failure.
func IsFieldError(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}
