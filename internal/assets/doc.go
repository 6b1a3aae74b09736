// Package assets serves the CSS styles and the HTML page template used for
// previews and published posts.
//
// A Library stacks an optional custom directory over the assets compiled
// into the binary. A name missing from the custom directory falls back to
// the embedded copy:
//
//	{dir}/
//	├── styles/{name}.css       # callout, math and hidden-link styling
//	└── templates/{name}.html   # standalone preview page
//
// The custom directory is opened with os.Root, so names and symlinks cannot
// reach files outside it.
package assets
