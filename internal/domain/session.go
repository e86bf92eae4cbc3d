package domain

// AdminSession is resolved once per request by the admin middleware and
// handed to handlers through fiber locals. It is read-only after that.
type AdminSession struct {
	SessionID     string
	Token         string // upstream auth cookie value
	Authenticated bool
}
