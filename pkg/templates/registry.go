package templates

import (
	"bytes"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"diligence/pkg/errors"
)

//go:embed assets/**/*.tmpl
var promptFS embed.FS

// Prompt is one parsed prompt template. Its ID is the asset path without the
// extension, grouped by pipeline stage: "report/organize", "report/assemble",
// "research/discover" and so on.
type Prompt struct {
	ID     string
	Source string

	tmpl *template.Template
}

// Render executes the prompt with data. Templates guard optional blocks with
// {{if}}, so callers omit keys such as Feedback on the first iteration.
func (p *Prompt) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render prompt %s", p.ID)
	}

	return buf.String(), nil
}

// Registry resolves prompt templates by ID. Every template is parsed at
// construction and the set is immutable afterwards, so lookups need no
// locking.
type Registry struct {
	prompts map[string]*Prompt
}

// NewRegistryFromFS parses every .tmpl file under the filesystem root. Used
// by Get for the embedded assets and by tests for fixture prompts.
func NewRegistryFromFS(filesystem fs.FS) (*Registry, error) {
	r := &Registry{prompts: map[string]*Prompt{}}

	err := fs.WalkDir(filesystem, ".", func(assetPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(assetPath, ".tmpl") {
			return nil
		}
		return r.load(filesystem, assetPath)
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Get returns the registry backed by the embedded prompt assets. A broken
// embedded prompt is a build defect, so parse failures panic here.
func Get() *Registry {
	embeddedOnce.Do(func() {
		assets, err := fs.Sub(promptFS, "assets")
		if err == nil {
			embeddedRegistry, err = NewRegistryFromFS(assets)
		}
		embeddedErr = err
	})

	if embeddedErr != nil {
		panic(embeddedErr)
	}

	return embeddedRegistry
}

// Lookup retrieves a prompt by ID.
func (r *Registry) Lookup(id string) (*Prompt, error) {
	prompt, ok := r.prompts[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "prompt template %q", id)
	}

	return prompt, nil
}

// Render executes the prompt with the given ID.
func (r *Registry) Render(id string, data any) (string, error) {
	prompt, err := r.Lookup(id)
	if err != nil {
		return "", err
	}

	return prompt.Render(data)
}

// List returns all prompt IDs in sorted order.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.prompts))
	for id := range r.prompts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

func (r *Registry) load(filesystem fs.FS, assetPath string) error {
	id := strings.TrimSuffix(path.Clean(assetPath), ".tmpl")

	content, err := fs.ReadFile(filesystem, assetPath)
	if err != nil {
		return errors.Wrapf(err, "read prompt %s", id)
	}

	tmpl, err := template.New(id).Parse(string(content))
	if err != nil {
		return errors.Wrapf(err, "parse prompt %s", id)
	}

	r.prompts[id] = &Prompt{
		ID:     id,
		Source: string(content),
		tmpl:   tmpl,
	}

	return nil
}

var (
	embeddedOnce     sync.Once
	embeddedRegistry *Registry
	embeddedErr      error
)
