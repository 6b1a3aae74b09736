// Package pipeline turns vault markdown into blog-ready HTML.
//
// A document run applies, in order:
//   - frontmatter stripping and start/end marker clipping
//   - image embed and wiki-link resolution (concurrent, order preserving)
//   - diagram code-block rendering (sequential)
//   - ==highlight== and $math$ wrapping
//   - callout rendering (line-scan or block dialect)
//   - markdown to HTML conversion via goldmark
//   - list repair, YouTube embedding, image paragraph unwrapping
//   - optional wrapping in a classed div
//
// Fragment runs skip the document-level steps and are used to render
// callout bodies through the same stages.
//
// Page assembly for previews (template, CSS, relative paths) lives here
// too; publishing and uploads belong to other packages.
package pipeline
