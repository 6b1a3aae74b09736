package pipeline

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	// Opening and closing li/ul/ol tags.
	listTag = regexp.MustCompile(`</?(?:li|ul|ol)\b[^>]*>`)

	// A closed nested list followed by the close of its parent item.
	closedListInItem = regexp.MustCompile(`</(ul|ol)>\s*</li>`)

	// An image tag, optionally alone in a paragraph.
	imgInParagraph = regexp.MustCompile(`(<p>\s*)?(<img\b[^>]*>)(\s*</p>)?`)

	// A paragraph holding a single image.
	soleImageParagraph = regexp.MustCompile(`<p>\s*(<img\b[^>]*>)\s*</p>`)
)

// RepairLists moves nested lists out of their parent item: every
// "<li>text<ul>" gains a "</li>" before the nested list, and every
// "</ul></li>" collapses to "</ul>" (both also for ol, whitespace
// tolerant).
func RepairLists(s string) string {
	locs := listTag.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	prevOpenItem := false
	for _, loc := range locs {
		tag := s[loc[0]:loc[1]]
		opensList := strings.HasPrefix(tag, "<ul") || strings.HasPrefix(tag, "<ol")

		if opensList && prevOpenItem {
			gap := s[last:loc[0]]
			text := strings.TrimRight(gap, " \t\r\n")
			b.WriteString(text)
			b.WriteString("</li>")
			b.WriteString(gap[len(text):])
		} else {
			b.WriteString(s[last:loc[0]])
		}
		b.WriteString(tag)
		last = loc[1]
		prevOpenItem = strings.HasPrefix(tag, "<li")
	}
	b.WriteString(s[last:])

	return closedListInItem.ReplaceAllString(b.String(), "</$1>")
}

// EmbedYouTube replaces images pointing at a YouTube video with a
// responsive iframe. The image alt text becomes the iframe title. A
// paragraph holding only the image is replaced along with it.
func EmbedYouTube(s string) string {
	locs := imgInParagraph.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		imgTag := s[loc[4]:loc[5]]
		src, alt := imageAttrs(imgTag)
		embed, ok := youTubeEmbedURL(src)
		if !ok {
			continue
		}

		start, end := loc[4], loc[5]
		if loc[2] >= 0 && loc[6] >= 0 {
			start, end = loc[0], loc[1]
		}
		b.WriteString(s[last:start])
		b.WriteString(youTubeIframe(embed, alt))
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

// UnwrapImages removes <p> wrappers around a lone <img>.
func UnwrapImages(s string) string {
	return soleImageParagraph.ReplaceAllString(s, "$1")
}

// WrapClass wraps s in a div with the given class. An empty class
// returns s unchanged.
func WrapClass(s, class string) string {
	class = strings.TrimSpace(class)
	if class == "" {
		return s
	}
	return fmt.Sprintf("<div class=\"%s\">\n%s\n</div>", html.EscapeString(class), s)
}

// imageAttrs reads src and alt from a single img tag.
func imageAttrs(tag string) (src, alt string) {
	z := html.NewTokenizer(strings.NewReader(tag))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
	default:
		return "", ""
	}
	for _, a := range z.Token().Attr {
		switch a.Key {
		case "src":
			src = a.Val
		case "alt":
			alt = a.Val
		}
	}
	return src, alt
}

// youTubeEmbedURL converts watch, short-link and shorts URLs to the
// embed form. Extra query parameters are kept; "t" becomes "start".
func youTubeEmbedURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	host := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(u.Host), "www."), "m.")
	q := u.Query()
	var id string

	switch {
	case host == "youtube.com" && u.Path == "/watch":
		id = q.Get("v")
		q.Del("v")
	case host == "youtube.com" && strings.HasPrefix(u.Path, "/shorts/"):
		id = strings.TrimPrefix(u.Path, "/shorts/")
	case host == "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	default:
		return "", false
	}

	id = strings.Trim(id, "/")
	if !validVideoID(id) {
		return "", false
	}

	if t := q.Get("t"); t != "" {
		q.Del("t")
		q.Set("start", strings.TrimSuffix(t, "s"))
	}
	q.Del("si")
	q.Del("feature")

	embed := "https://www.youtube.com/embed/" + id
	if enc := q.Encode(); enc != "" {
		embed += "?" + enc
	}
	return embed, true
}

func validVideoID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func youTubeIframe(src, title string) string {
	return `<div class="video-container" style="position:relative;padding-bottom:56.25%;height:0;overflow:hidden;">` +
		`<iframe src="` + html.EscapeString(src) + `" title="` + html.EscapeString(title) + `"` +
		` style="position:absolute;top:0;left:0;width:100%;height:100%;" frameborder="0"` +
		` allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture"` +
		` allowfullscreen></iframe></div>`
}
