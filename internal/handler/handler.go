package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// callerEmail extracts the authenticated caller identity. Authentication
// itself happens upstream; the engine only needs the identity for ownership
// checks.
func callerEmail(r *http.Request) string {
	return r.Header.Get("X-User-Email")
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}
