package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// UserProfile is the authenticated user's profile as returned by GET /users/me.
type UserProfile struct {
	ID       ID      `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	Company  *string `json:"company,omitempty"`
	IsActive bool    `json:"is_active"`
}

// Validate checks the fields every profile response carries.
func (u UserProfile) Validate() error {
	switch {
	case u.ID == "":
		return errors.New("profile is missing id")
	case u.Email == "":
		return errors.New("profile is missing email")
	case u.FullName == "":
		return errors.New("profile is missing full_name")
	}
	return nil
}

// CompanyName returns the company or an empty string when unset.
func (u *UserProfile) CompanyName() string {
	if u.Company == nil {
		return ""
	}
	return *u.Company
}

// ID is a record identifier which the API may send as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("id must not be null")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}
