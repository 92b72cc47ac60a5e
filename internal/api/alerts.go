package api

import (
	"net/http"

	"github.com/rogrs/loja/internal/domain"
)

// ApplicationName prefixes the alert headers read by the front end.
const ApplicationName = "lojaApp"

// Alert header names.
const (
	HeaderAlert  = "X-" + ApplicationName + "-alert"
	HeaderError  = "X-" + ApplicationName + "-error"
	HeaderParams = "X-" + ApplicationName + "-params"
)

// Failure keys sent in HeaderError.
const (
	ErrorKeyIDExists   = "idexists"
	ErrorKeyValidation = "validation"
)

func alert(message, param string) http.Header {
	h := make(http.Header)
	h.Add(HeaderAlert, message)
	h.Add(HeaderParams, param)
	return h
}

// CreationAlert is sent after an entity is created.
func CreationAlert(id string) http.Header {
	return alert("A new "+domain.EntityName+" is created with identifier "+id, id)
}

// UpdateAlert is sent after an entity is updated.
func UpdateAlert(id string) http.Header {
	return alert("A "+domain.EntityName+" is updated with identifier "+id, id)
}

// DeletionAlert is sent after an entity is deleted.
func DeletionAlert(id string) http.Header {
	return alert("A "+domain.EntityName+" is deleted with identifier "+id, id)
}

// FailureAlert is sent with a rejected request.
func FailureAlert(errorKey string) http.Header {
	h := make(http.Header)
	h.Add(HeaderError, "error."+errorKey)
	h.Add(HeaderParams, domain.EntityName)
	return h
}
