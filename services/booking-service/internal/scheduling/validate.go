package scheduling

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	// The TLD including its dot is at least three characters: a@b.co passes, a@b does not.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("clinic_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// classify turns validator output into the first rejection in admission order:
// missing fields, then mobile, then email.
func classify(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return reject(KindValidation, ReasonInvalidField, "invalid request")
	}

	var missing []string
	var badMobile, badEmail bool
	var other []string
	for _, fe := range verrs {
		switch {
		case fe.Tag() == "required":
			missing = append(missing, jsonName(fe.Field()))
		case fe.Tag() == "mobile":
			badMobile = true
		case fe.Tag() == "clinic_email":
			badEmail = true
		default:
			other = append(other, jsonName(fe.Field()))
		}
	}

	switch {
	case len(missing) > 0:
		sort.Strings(missing)
		return reject(KindValidation, ReasonMissingFields, "missing required fields: %s", strings.Join(missing, ", "))
	case badMobile:
		return reject(KindValidation, ReasonInvalidMobile, "mobile must be 10 digits starting with 6-9")
	case badEmail:
		return reject(KindValidation, ReasonInvalidEmail, "email address is not valid")
	default:
		return reject(KindValidation, ReasonInvalidField, "invalid fields: %s", strings.Join(other, ", "))
	}
}

var fieldNames = map[string]string{
	"DoctorID":       "doctor_id",
	"Date":           "date",
	"Time":           "time",
	"PatientName":    "patient_name",
	"OPNumber":       "op_number",
	"Mobile":         "mobile",
	"Email":          "email",
	"IdempotencyKey": "idempotency_key",
	"Session":        "session",
	"StartTime":      "start_time",
	"EndTime":        "end_time",
}

func jsonName(field string) string {
	if n, ok := fieldNames[field]; ok {
		return n
	}
	return strings.ToLower(field)
}
