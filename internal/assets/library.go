package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
)

//go:embed styles/*.css templates/*.html
var embedded embed.FS

// Built-in asset names.
const (
	DefaultStyleName    = "default"
	MinimalStyleName    = "minimal"
	PreviewTemplateName = "preview"
)

// Kind selects an asset family.
type Kind int

const (
	Style Kind = iota
	Template
)

func (k Kind) String() string {
	if k == Template {
		return "template"
	}
	return "style"
}

func (k Kind) dir() string {
	if k == Template {
		return "templates"
	}
	return "styles"
}

func (k Kind) ext() string {
	if k == Template {
		return ".html"
	}
	return ".css"
}

func (k Kind) notFound() error {
	if k == Template {
		return ErrTemplateNotFound
	}
	return ErrStyleNotFound
}

// Library resolves assets through its layers, first match wins.
type Library struct {
	layers []fs.FS
	root   *os.Root
}

// Open returns a Library over the embedded assets, topped by customDir when
// it is not empty. Close releases the custom directory.
func Open(customDir string) (*Library, error) {
	lib := &Library{}
	if customDir != "" {
		info, err := os.Stat(customDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidDir, customDir)
		}
		root, err := os.OpenRoot(customDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDir, err)
		}
		lib.root = root
		lib.layers = append(lib.layers, root.FS())
	}
	lib.layers = append(lib.layers, embedded)
	return lib, nil
}

// Custom reports whether a custom directory is layered over the embedded assets.
func (l *Library) Custom() bool {
	return l.root != nil
}

// Style returns the CSS of the named style.
func (l *Library) Style(name string) (string, error) {
	return l.Load(Style, name)
}

// Template returns the source of the named page template.
func (l *Library) Template(name string) (string, error) {
	return l.Load(Template, name)
}

// Load reads {kind dir}/{name}{kind ext} from the first layer holding it.
// Read errors other than a missing file stop the lookup.
func (l *Library) Load(kind Kind, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	p := path.Join(kind.dir(), name+kind.ext())
	for _, layer := range l.layers {
		data, err := fs.ReadFile(layer, p)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s %q: %v", ErrUnreadable, kind, name, err)
		}
	}
	return "", fmt.Errorf("%w: %q (available: %s)", kind.notFound(), name, strings.Join(l.Names(kind), ", "))
}

// Names lists the assets of a kind across all layers, sorted and deduplicated.
func (l *Library) Names(kind Kind) []string {
	var names []string
	for _, layer := range l.layers {
		entries, err := fs.ReadDir(layer, kind.dir())
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || path.Ext(e.Name()) != kind.ext() {
				continue
			}
			names = append(names, strings.TrimSuffix(e.Name(), kind.ext()))
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Close releases the custom directory, if any.
func (l *Library) Close() error {
	if l.root == nil {
		return nil
	}
	return l.root.Close()
}

// ValidateName rejects empty names and names holding separators or dots.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\\.") || !fs.ValidPath(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
