package audiostash

import (
	"errors"
	"os"
)

// Environment variables holding the storage project credentials
const (
	EnvStorageURL = "SUPABASE_URL"
	EnvStorageKey = "SUPABASE_ANON_KEY"
)

// ErrMissingCredentials is returned when the storage URL or key is not set
var ErrMissingCredentials = errors.New("storage credentials not found, set " + EnvStorageURL + " and " + EnvStorageKey)

// Credentials locate and authorize a storage project
type Credentials struct {
	URL string
	Key string
}

// Valid reports whether both the URL and the key are set
func (c Credentials) Valid() bool {
	return c.URL != "" && c.Key != ""
}

// CredentialsFromEnv reads the storage credentials from the environment
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		URL: os.Getenv(EnvStorageURL),
		Key: os.Getenv(EnvStorageKey),
	}
	if !creds.Valid() {
		return Credentials{}, ErrMissingCredentials
	}
	return creds, nil
}
