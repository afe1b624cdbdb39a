package script

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported script language")
	ErrScriptExecution     = errors.New("script execution failed")
)

type UnsupportedLanguageError struct {
	Language schema.ScriptLanguage
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnsupportedLanguage, e.Language)
}

func (e *UnsupportedLanguageError) Unwrap() error { return ErrUnsupportedLanguage }

// ExecutionError reports the statement that failed. Line is 1-based and
// zero when the failure is not tied to a statement.
type ExecutionError struct {
	Line      int
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("script line %d %q: %v", e.Line, e.Statement, e.Err)
	}
	return fmt.Sprintf("script: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrScriptExecution }
