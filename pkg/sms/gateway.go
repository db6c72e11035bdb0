package sms

import (
	"fmt"
	"regexp"
	"strings"
)

// Gateway sends SMS messages to passengers and drivers. Implementations
// return a provider transaction id for delivery tracking.
type Gateway interface {
	Send(phone, message string) (int64, error)
	SendBulk(phones []string, message string) (int64, error)
	Name() string
}

var digitsOnly = regexp.MustCompile(`[^0-9]`)

// FormatMSISDN normalizes an Indian mobile number to international MSISDN
// form without the plus sign ("919876543210").
//
// Accepted inputs: "9876543210", "09876543210", "919876543210",
// "+91 98765 43210" and the usual separator variants.
func FormatMSISDN(phone string) (string, error) {
	phone = digitsOnly.ReplaceAllString(phone, "")

	if strings.HasPrefix(phone, "91") && len(phone) == 12 {
		phone = phone[2:]
	}
	if strings.HasPrefix(phone, "0") && len(phone) == 11 {
		phone = phone[1:]
	}

	if len(phone) != 10 {
		return "", fmt.Errorf("invalid mobile number length after formatting: %d digits (expected 10)", len(phone))
	}

	// Indian mobile numbers start with 6-9
	if phone[0] < '6' || phone[0] > '9' {
		return "", fmt.Errorf("invalid mobile prefix: must start with 6-9")
	}

	return "91" + phone, nil
}
