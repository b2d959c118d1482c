package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost используется и сидером, и CLI hashpass.
const PasswordCost = bcrypt.DefaultCost

var errEmptyPassword = errors.New("пароль не может быть пустым")

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("не удалось хешировать пароль: %w", err)
	}
	return string(hashed), nil
}

// ComparePasswords возвращает nil только при совпадении пароля с bcrypt-хешем.
func ComparePasswords(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
