package user

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/tchaleu/saetrack/core"
)

const (
	pwdMinLen = 8
	pwdMaxSim = 0.7
)

var (
	pwdTooShortText   = "password is too short; at least 8 characters required"
	pwdNoSpaceText    = "password must not contain whitespace"
	pwdNotAllNumText  = "password cannot be entirely numeric"
	pwdAttrSimText    = "password is too similar to the name, username or email"
	errPasswordNotSet = "password required"
)

// ValidatePassword runs the password policy checks against a candidate
// password and the user attributes it must not resemble.
func ValidatePassword(pwd, name, uname, email string) error {
	reportErr := func(text string) error {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: text})
	}

	if pwd == "" {
		return reportErr(errPasswordNotSet)
	}
	if len(pwd) < pwdMinLen {
		return reportErr(pwdTooShortText)
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return reportErr(pwdNoSpaceText)
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len(pwd) {
		return reportErr(pwdNotAllNumText)
	}

	// no user attrs similarity
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	if getRatio(lpwd, strings.ToLower(name)) >= pwdMaxSim ||
		getRatio(lpwd, strings.ToLower(uname)) >= pwdMaxSim ||
		getRatio(lpwd, strings.ToLower(email)) >= pwdMaxSim {
		return reportErr(pwdAttrSimText)
	}
	return nil
}
