// Package md2blog converts notes of a markdown vault into blog-ready HTML.
//
// # Quick Start
//
// Create a converter for a vault, convert a note, and close when done:
//
//	conv, err := md2blog.NewConverter(md2blog.WithVault("/path/to/vault"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	bundle, err := conv.Convert(ctx, md2blog.Input{Path: "posts/Hello.md"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(bundle.Title, bundle.Labels)
//
// The bundle carries the converted HTML, the title (the blogTitle
// frontmatter key or the note name), labels, sorted tags and, with
// WithHiddenLinks, hidden anchors to related published notes.
//
// # Conversion Pipeline
//
//  1. Frontmatter stripping and clipping to the configured markers
//  2. Image embeds (![[name]], ![alt](path)) uploaded through the Uploader
//  3. Wikilinks replaced by their alias, note name or published URL
//  4. Diagram code blocks ("```d2 render alt") rendered and uploaded
//  5. ==highlights==, math, callouts, markdown conversion via Goldmark,
//     list repair, YouTube embeds and image unwrapping
//
// Failures to resolve an image or a diagram never fail the conversion: the
// original text is kept and a warning is logged.
//
// # Configuration
//
//	conv, err := md2blog.NewConverter(
//	    md2blog.WithVault(root),
//	    md2blog.WithUploader(imgur),
//	    md2blog.WithD2("", 30*time.Second),
//	    md2blog.WithMermaid("", "dark"),
//	    md2blog.WithCalloutDialect(md2blog.DialectBlock),
//	    md2blog.WithWrapClass("obsidian-html"),
//	)
//
// # Preview
//
// Preview wraps a bundle into a standalone page with the converter style
// (DefaultStyle, MinimalStyle, a CSS file or CSS content):
//
//	page, err := conv.Preview(ctx, bundle, "", nil)
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool:
//
//	pool := md2blog.NewConverterPool(md2blog.ResolvePoolSize(0), opts...)
//	defer pool.Close()
//
//	conv, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
package md2blog
