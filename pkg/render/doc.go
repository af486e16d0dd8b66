// Package render feeds the merged driver sequence into each wrapper template
// and writes the results next to each other in the output directory.
package render
