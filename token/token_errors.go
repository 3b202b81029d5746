package token

import "errors"

var (
	MalformedErr        = errors.New("token malformed")
	SignatureInvalidErr = errors.New("token signature invalid")
	ExpiredErr          = errors.New("token expired")
)
