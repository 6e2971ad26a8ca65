// Package keyring keeps cloud credentials in the OS keyring so they never
// land in the config file.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/stronghabit/internal/constants"
)

var (
	// ErrNotFound is returned when no secret is stored under the requested name
	ErrNotFound = errors.New("secret not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	secret, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func set(user, secret string) error {
	if secret == "" {
		return errors.New("secret cannot be empty")
	}
	if err := keyring.Set(constants.AppName, user, secret); err != nil {
		return fmt.Errorf("failed to store secret in keyring: %w", err)
	}
	return nil
}

func remove(user string) error {
	if err := keyring.Delete(constants.AppName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete secret from keyring: %w", err)
	}
	return nil
}

// GetS3SecretKey returns the S3 secret access key for the configured access key id.
func GetS3SecretKey(accessKeyID string) (string, error) {
	return get(s3User(accessKeyID))
}

func SetS3SecretKey(accessKeyID, secret string) error {
	if accessKeyID == "" {
		return errors.New("access key id cannot be empty")
	}
	return set(s3User(accessKeyID), secret)
}

func DeleteS3SecretKey(accessKeyID string) error {
	return remove(s3User(accessKeyID))
}

func s3User(accessKeyID string) string {
	return constants.KeyringS3SecretUser + ":" + accessKeyID
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
