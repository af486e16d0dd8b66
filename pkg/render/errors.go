package render

import "fmt"

// TemplateError reports a template that could not be rendered or whose
// output could not be written. Err is the engine's error, unchanged.
type TemplateError struct {
	Template string
	Output   string
	Err      error
}

func (e *TemplateError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("render %s: write %s: %v", e.Template, e.Output, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}
