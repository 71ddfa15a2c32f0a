package identity

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// hashPassword will generate a bcrypt hash at cost
func hashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", goerrors.New("password must not be empty", goerrors.CategoryValidation)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// comparePassword validates the cleartext password against hash. Any
// mismatch is reported as ErrInvalidLogin.
func comparePassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidLogin
		}
		return err
	}
	return nil
}
