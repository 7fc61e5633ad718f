package auth

// Principal is the identity carried by a verified token. Values are only
// produced by TokenService.Verify; the zero value means "not authenticated".
type Principal struct {
	username string
	userID   int64
	role     string
}

func (p Principal) Username() string { return p.username }

func (p Principal) UserID() int64 { return p.userID }

func (p Principal) Role() string { return p.role }

func (p Principal) IsZero() bool {
	return p.username == "" && p.userID == 0
}
