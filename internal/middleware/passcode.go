// Package middleware carries the shared-passcode gate in front of the UI
// endpoints. A static passcode is a placeholder, not a security boundary;
// real deployments should swap in proper authentication.
package middleware

import "net/http"

// PasscodeHeader is where clients present the shared passcode.
const PasscodeHeader = "X-Passcode"

// Passcode rejects requests whose X-Passcode header does not match code.
// An empty code disables the gate entirely.
func Passcode(code string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if code != "" && r.Header.Get(PasscodeHeader) != code {
				http.Error(w, "invalid passcode", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
