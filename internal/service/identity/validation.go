package identity

import (
	"errors"
	"net/mail"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	models "autohub/internal/domain/models/identity"
	identitySvc "autohub/internal/domain/services/identity"
)

// emailRule rejects anything net/mail cannot parse as a bare address
// (display-name forms like "Bob <bob@x>" included).
func emailRule(value any) error {
	s, _ := value.(string)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errors.New("must be a valid email address")
	}
	return nil
}

// passwordPolicyRule enforces the account password policy. Login skips it
// so accounts enrolled under older rules can still sign in.
func passwordPolicyRule(value any) error {
	s, _ := value.(string)
	var hasUpper, hasLower, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	switch {
	case len(s) < 8:
		return errors.New("must be at least 8 characters long")
	case !hasUpper:
		return errors.New("must include at least one uppercase letter")
	case !hasLower:
		return errors.New("must include at least one lowercase letter")
	case !hasDigit:
		return errors.New("must include at least one digit")
	}
	return nil
}

func validateLoginRequest(req *identitySvc.LoginRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, validation.By(emailRule)),
		validation.Field(&req.Password, validation.Required, validation.Length(1, 128)),
	)
}

func validateRegisterRequest(req *identitySvc.RegisterRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Email, validation.Required, validation.By(emailRule)),
		validation.Field(&req.Password, validation.Required, validation.Length(8, 128), validation.By(passwordPolicyRule)),
		validation.Field(&req.CompanyTitle, validation.Required, validation.Length(2, 120)),
	)
}

func validateCreateUserRequest(req *identitySvc.CreateUserRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Email, validation.Required, validation.By(emailRule)),
		validation.Field(&req.Password, validation.Required, validation.Length(8, 128), validation.By(passwordPolicyRule)),
		validation.Field(&req.Role,
			validation.Required,
			validation.In(models.RoleDeveloper, models.RoleEmployee).Error("must be DEVELOPER or EMPLOYEE"),
		),
		validation.Field(&req.CompanyTitle, validation.Required, validation.Length(2, 120)),
	)
}
