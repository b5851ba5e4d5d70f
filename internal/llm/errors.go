package llm

import (
	"errors"
	"strings"
)

// ErrFatalAPI marks backend errors that retrying cannot fix, such as auth
// and billing failures. Callers abort a batch when they see it.
var ErrFatalAPI = errors.New("fatal api error")

var fatalPhrases = []string{
	"credit balance",
	"rate limit",
	"quota exceeded",
	"billing",
	"invalid api key",
	"authentication failed",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError matches provider error messages that indicate auth,
// billing, or quota problems.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range fatalPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// wrapFatalError tags fatal API errors with ErrFatalAPI and returns other
// errors unchanged.
func wrapFatalError(err error) error {
	if err == nil {
		return nil
	}
	if isFatalAPIError(err) {
		return errors.Join(ErrFatalAPI, err)
	}
	return err
}
