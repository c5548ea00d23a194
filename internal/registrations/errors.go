package registrations

import (
	"errors"
	"strings"

	"github.com/aura-webinar/workshops/internal/storage"
)

// Kind classifies why a submission did not succeed.
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindEligibilityClosed Kind = "EligibilityClosed"
	KindAbuseLockout      Kind = "AbuseLockout"
	KindDuplicate         Kind = "DuplicateRegistration"
	KindTransport         Kind = "TransportFailure"
	KindConfiguration     Kind = "ConfigurationError"
	KindUnclassified      Kind = "UnclassifiedError"
)

const (
	MsgDuplicate     = "This student is already registered for this workshop event."
	MsgTransport     = "Unable to connect to registration system. Please check your internet connection and try again."
	MsgConfiguration = "Database connection error. Please check your configuration or contact support."
	MsgValidation    = "Please correct the highlighted fields."
)

// Classify maps a storage or workflow error to a Kind and the message shown to the user.
// Sentinels are checked first; message text is the fallback for errors from
// backends that do not wrap them.
func Classify(err error) (Kind, string) {
	if err == nil {
		return "", ""
	}
	var fe FieldErrors
	switch {
	case errors.As(err, &fe):
		return KindValidation, MsgValidation
	case errors.Is(err, storage.ErrDuplicate):
		return KindDuplicate, MsgDuplicate
	case errors.Is(err, storage.ErrNotInitialized):
		return KindConfiguration, MsgConfiguration
	case errors.Is(err, storage.ErrTransport):
		return KindTransport, MsgTransport
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already registered"):
		return KindDuplicate, MsgDuplicate
	case strings.Contains(msg, "not initialized"):
		return KindConfiguration, MsgConfiguration
	case strings.Contains(msg, "connection"), strings.Contains(msg, "fetch"), strings.Contains(msg, "api error"):
		return KindTransport, MsgTransport
	}
	return KindUnclassified, "Error: " + err.Error()
}
