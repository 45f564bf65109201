package models

// Principal is the authenticated identity handed back by the credential
// verifier: a stable subject plus role names. It deliberately carries no
// framework baggage.
type Principal struct {
	ID    string
	Roles []string
}
