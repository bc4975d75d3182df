// Package models defines the records persisted by the webkech session store.
package models

import "time"

// Account is a registered identity. It is created once at registration and
// never modified or deleted afterwards.
type Account struct {
	// ID is an opaque unique identifier.
	ID string `json:"id"`

	// Email is unique across accounts and compared byte for byte.
	Email string `json:"email"`

	// CreatedAt is the registration time in UTC.
	CreatedAt time.Time `json:"createdAt"`
}

// Credential verifies the secret of exactly one Account.
type Credential struct {
	Email string `json:"email"`

	// SecretHash is a PHC-encoded Argon2id hash, see package cryptox.
	SecretHash string `json:"secretHash"`

	AccountID string `json:"accountId"`
}

// FindAccountByEmail returns the account with the given email, if any.
func FindAccountByEmail(accounts []Account, email string) (Account, bool) {
	for _, a := range accounts {
		if a.Email == email {
			return a, true
		}
	}
	return Account{}, false
}

// FindAccountByID returns the account with the given id, if any.
func FindAccountByID(accounts []Account, id string) (Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// FindCredential returns the credential registered for email, if any.
func FindCredential(credentials []Credential, email string) (Credential, bool) {
	for _, c := range credentials {
		if c.Email == email {
			return c, true
		}
	}
	return Credential{}, false
}
