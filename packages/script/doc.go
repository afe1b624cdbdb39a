// Package script runs pre- and post-request hooks.
//
// Hooks are dispatched by language tag. The rhai tag runs on an
// expression engine built on expr-lang/expr; javascript and lua can be
// declared in a schema but fail with ErrUnsupportedLanguage when run.
//
// A script is a list of statements separated by newlines or semicolons.
// Lines starting with // or # are comments. A statement of the form
// "name = expr" or "let name = expr" stores the result in the overrides;
// any other statement is evaluated for its error only:
//
//	let token = body("data.token")
//	user_id = int(body("data.user.id"))
//	status == 200 || fail("unexpected status")
//
// Every override is visible by name, and the whole map as vars. Post-request
// hooks also see status, text, header(name) and body(path), where path is a
// gjson path into the JSON response body.
package script
