package models

// Credential is an opaque bearer token. It is stored and attached to requests,
// never parsed. The zero value means no credential is present.
type Credential string

// IsZero returns true if no credential is present.
func (c Credential) IsZero() bool {
	return c == ""
}

// String redacts the token so credentials never end up in logs.
func (c Credential) String() string {
	if c.IsZero() {
		return "<none>"
	}
	return "<redacted>"
}

// Token returns the raw token value for use in an Authorization header.
func (c Credential) Token() string {
	return string(c)
}
