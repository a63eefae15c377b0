// Package validator provides composable validation rules.
//
// Each rule pairs a check with the error reported when it fails. Apply runs
// every rule and returns all failures at once as ValidationErrors, which the
// HTTP layer renders as a field to messages map:
//
//	err := validator.Apply(
//		validator.Required("username", p.Username),
//		validator.Matches("username", p.Username, usernamePattern, "lowercase letters and digits"),
//	)
package validator
