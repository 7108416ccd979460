package domain

// AccessToken is a process-local remote credential. It is a distinct type
// rather than a plain string so that every textual rendering is redacted:
// the raw value must never reach logs, state files or committed content.
type AccessToken string

const redactedToken = "[REDACTED]"

// String implements fmt.Stringer with a redacted value.
func (t AccessToken) String() string {
	if t == "" {
		return ""
	}
	return redactedToken
}

// GoString keeps %#v output redacted as well.
func (t AccessToken) GoString() string {
	return "domain.AccessToken(" + t.String() + ")"
}

// MarshalText redacts the token in any text-based serialization (JSON
// included, via encoding.TextMarshaler).
func (t AccessToken) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Reveal returns the raw token. Call sites are the single audit surface
// for where the secret leaves the process.
func (t AccessToken) Reveal() string {
	return string(t)
}

// Empty reports whether no token was supplied.
func (t AccessToken) Empty() bool {
	return t == ""
}
