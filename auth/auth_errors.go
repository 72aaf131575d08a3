package auth

// Messages for failures found after the input itself passed validation.
const (
	msgUnknownAccount  = "An account with that e-mail does not exist. Please check and try again"
	msgWrongPassword   = "Your password is incorrect. Please try again or click \"forgot password\"."
	msgFallbackInvalid = "Please check this field."

	// MsgEmailTaken is also used when the store rejects a duplicate the pre-check missed.
	MsgEmailTaken = "Your e-mail belongs to another account. Please login instead."

	// MsgInvalidSession is shown when a bearer token does not resolve to a session.
	MsgInvalidSession = "Invalid session ID"
)
