package notifier

import (
	"errors"
	"strings"
)

// Classification says whether a failed address should be kept.
type Classification int

const (
	// Transient failures leave the address subscribed.
	Transient Classification = iota
	// Permanent failures mean the mailbox will never accept mail.
	Permanent
)

func (c Classification) String() string {
	if c == Permanent {
		return "permanent"
	}
	return "transient"
}

// permanentSignatures are lowercase fragments of "recipient does not exist"
// responses seen from common relays.
var permanentSignatures = []string{
	"user not found",
	"no such user",
	"recipient address rejected",
	"mailbox unavailable",
}

// ClassifyFailure classifies a relay response by code and message.
// Any 550-class code or a known signature in the message is Permanent.
func ClassifyFailure(code int, message string) Classification {
	if code >= 550 && code <= 559 {
		return Permanent
	}
	lower := strings.ToLower(message)
	for _, sig := range permanentSignatures {
		if strings.Contains(lower, sig) {
			return Permanent
		}
	}
	return Transient
}

// Classify classifies any send error. Errors that are not a DeliveryError
// are classified from their message alone.
func Classify(err error) Classification {
	if err == nil {
		return Transient
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return ClassifyFailure(de.Code, de.Message)
	}
	return ClassifyFailure(0, err.Error())
}
