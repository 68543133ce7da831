package types

const redacted = "[redacted]"

// SecretString holds a credential (for example the DATABASE_URL) that must
// never reach logs or JSON output. fmt and encoding/json both see the
// redacted placeholder; Reveal returns the real value.
type SecretString string

// String implements fmt.Stringer.
func (s SecretString) String() string {
	return redacted
}

// GoString keeps %#v from printing the raw value.
func (s SecretString) GoString() string {
	return redacted
}

// MarshalJSON implements json.Marshaler.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// Reveal returns the plaintext. Call it only where the driver or client
// needs the credential.
func (s SecretString) Reveal() string {
	return string(s)
}

// Empty reports whether no value was configured.
func (s SecretString) Empty() bool {
	return s == ""
}
