// Package identity resolves the effective owner of a cart or order: an
// authenticated user, an anonymous browser session, or nobody at all.
package identity

type Kind int

const (
	// Anonymous means no user and no session id was presented. Cart reads
	// report an empty cart; cart mutations are silent no-ops.
	Anonymous Kind = iota
	User
	Session
)

// Identity is the resolved owner of storefront state.
type Identity struct {
	Kind Kind
	ID   string
}

// Resolve applies the precedence rule once per request: an authenticated
// user id always wins, a supplied session id is used otherwise, and anything
// else is anonymous. A session id sent alongside a valid user id is ignored.
func Resolve(userID, sessionID string) Identity {
	switch {
	case userID != "":
		return Identity{Kind: User, ID: userID}
	case sessionID != "":
		return Identity{Kind: Session, ID: sessionID}
	default:
		return Identity{Kind: Anonymous}
	}
}

func (id Identity) IsAnonymous() bool { return id.Kind == Anonymous }

// UserID returns the user id when the identity is an authenticated user,
// otherwise the empty string. Orders are keyed by user id only, so session
// identities read as empty here on purpose.
func (id Identity) UserID() string {
	if id.Kind == User {
		return id.ID
	}
	return ""
}
