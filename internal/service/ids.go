package service

import "math/rand"

const sessionIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const sessionIDLength = 10

// newSessionID creates a short alphanumeric id for a battle session.
// Uniqueness is the caller's job: the service regenerates until the id
// is free in the session registry.
func newSessionID(rng *rand.Rand) string {
	b := make([]byte, sessionIDLength)
	for i := range b {
		b[i] = sessionIDCharset[rng.Intn(len(sessionIDCharset))]
	}
	return string(b)
}
