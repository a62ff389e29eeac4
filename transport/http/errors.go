package http

import "net/http"

// errorKind is one of the error kinds from spec.md §7. Kept as a string,
// never a type name, so the wire representation is exactly the kind
// itself — matching the {"code": <kind>, ...} envelope.
type errorKind string

const (
	badRequest     errorKind = "badRequest"
	mapNotFound    errorKind = "mapNotFound"
	invalidArg     errorKind = "invalidArgument"
	invalidMethod  errorKind = "invalidMethod"
	invalidToken   errorKind = "invalidToken"
	unknownToken   errorKind = "unknownToken"
	fileNotFound   errorKind = "fileNotFound"
)

// statusFor maps each error kind to the HTTP status spec.md's scenarios
// and REST surface table imply for it.
func statusFor(kind errorKind) int {
	switch kind {
	case mapNotFound, fileNotFound:
		return http.StatusNotFound
	case invalidMethod:
		return http.StatusMethodNotAllowed
	case invalidToken, unknownToken:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// apiError is the {"code","message"} envelope from spec.md §6/§7.
type apiError struct {
	Code    errorKind `json:"code"`
	Message string    `json:"message"`
}
