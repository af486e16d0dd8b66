package template

import (
	"io"
)

// Renderer renders a named template with the given context. Implementations
// return the rendered text and also write it to every out writer.
type Renderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(name string, data any) (string, error)

// RenderTemplate calls f and copies the result to out.
func (f RendererFunc) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	rendered, err := f(name, data)
	if err != nil {
		return "", err
	}
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}
