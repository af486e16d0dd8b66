// Package template defines the seam between the render pipeline and the
// template engine. The pipeline treats the engine as an opaque function from
// (template name, context) to text; loops and conditionals over the driver
// list live in the templates themselves.
package template
