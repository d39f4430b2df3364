package userservice

import (
	"regexp"
	"strings"

	"github.com/sushihentaime/blogsphere/internal/common"
)

var (
	EmailRX     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	UppercaseRX = regexp.MustCompile("[A-Z]")
	LowercaseRX = regexp.MustCompile("[a-z]")
	NumberRX    = regexp.MustCompile("[0-9]")
	SymbolRX    = regexp.MustCompile(`[#?!@$%^&*_\\\-]`)
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(v *common.Validator, name, field string) {
	v.Check(name != "", field, "must be provided")
	v.Check(v.CheckStringLength(name, 2, 50), field, "must be between 2 and 50 characters long")
}

func validateEmail(v *common.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(EmailRX.MatchString(email), "email", "must be a valid email address")
}

// validatePassword caps passwords at 72 bytes, the most bcrypt accepts.
func validatePassword(v *common.Validator, password, field string) {
	v.Check(password != "", field, "must be provided")

	ok := len(password) >= 8 && len(password) <= 72 &&
		UppercaseRX.MatchString(password) &&
		LowercaseRX.MatchString(password) &&
		NumberRX.MatchString(password) &&
		SymbolRX.MatchString(password)
	v.Check(ok, field, "must be between 8 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one symbol")
}

func validateBio(v *common.Validator, bio string) {
	v.Check(v.CheckStringLength(bio, 0, MaxBioLength), "bio", "must not be more than 50 characters long")
}

func validateID(v *common.Validator, id int64, name string) {
	v.Check(id > 0, name, "must be greater than zero")
}
