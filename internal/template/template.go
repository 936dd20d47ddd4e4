// Package template scaffolds new notes from named templates. A template is a
// markdown file (frontmatter plus body) with Go template actions; built-ins
// cover the common vault note kinds and user templates in the vault's
// templates/ folder override them.
package template

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/google/uuid"

	"vaultkit/internal/db"
	"vaultkit/internal/logger"
	"vaultkit/pkg/models"
)

// Info describes an available template.
type Info struct {
	Name   string
	Source string // "built-in" or the template file path
}

// Engine renders templates into new vault notes.
type Engine struct {
	db    *db.DB
	vault *models.Vault
	log   *logger.Logger
	now   func() time.Time
	newID func() string
}

// NewEngine creates a template engine for the given vault.
func NewEngine(database *db.DB, vault *models.Vault, log *logger.Logger) *Engine {
	return &Engine{
		db:    database,
		vault: vault,
		log:   log,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// context is the data available to template actions.
type context struct {
	Title string
	Slug  string
	Date  string
	Time  string
	UUID  string
	Vault string
	Vars  map[string]string
}

// List returns every available template, user templates first.
func (e *Engine) List() ([]Info, error) {
	byName := make(map[string]Info, len(builtins))
	for name := range builtins {
		byName[name] = Info{Name: name, Source: "built-in"}
	}

	dir := filepath.Join(e.vault.RootPath, "templates")
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read templates folder: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".md")
		byName[name] = Info{Name: name, Source: filepath.Join("templates", entry.Name())}
	}

	infos := make([]Info, 0, len(byName))
	for _, info := range byName {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Metrics aggregates recorded template usage.
func (e *Engine) Metrics() ([]models.TemplateMetrics, error) {
	return e.db.GetTemplateMetrics(e.vault.Name)
}

// New renders the named template and writes the resulting note into the
// vault, refusing to overwrite an existing file. outDir is vault-relative
// and optional. It returns the vault-relative path of the created note.
func (e *Engine) New(name, title string, vars map[string]string, outDir string) (string, error) {
	source, err := e.load(name)
	if err != nil {
		return "", err
	}

	now := e.now()
	if title == "" {
		title = now.Format("2006-01-02")
	}

	ctx := context{
		Title: title,
		Slug:  Slug(title),
		Date:  now.Format("2006-01-02"),
		Time:  now.Format("15:04"),
		UUID:  e.newID(),
		Vault: e.vault.Name,
		Vars:  vars,
	}

	tmpl, err := texttemplate.New(name).Option("missingkey=zero").Parse(source)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}

	relPath := ctx.Slug + ".md"
	if outDir != "" {
		relPath = strings.Trim(filepath.ToSlash(outDir), "/") + "/" + relPath
	}
	absPath := filepath.Join(e.vault.RootPath, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create note folder: %w", err)
	}
	f, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("note %s already exists", relPath)
		}
		return "", fmt.Errorf("failed to create note: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	if err := e.db.RecordTemplateUse(e.vault.Name, name, relPath, now); err != nil {
		e.log.Warn().Str("template", name).Err(err).Msg("failed to record template use")
	}

	e.log.Info().Str("template", name).Str("note", relPath).Msg("note created")
	return relPath, nil
}

// load returns the template source, preferring a user template over a
// built-in of the same name.
func (e *Engine) load(name string) (string, error) {
	userPath := filepath.Join(e.vault.RootPath, "templates", name+".md")
	if data, err := os.ReadFile(userPath); err == nil {
		return string(data), nil
	}

	if source, ok := builtins[name]; ok {
		return source, nil
	}
	return "", fmt.Errorf("unknown template %q", name)
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a title into a file-name-safe slug.
func Slug(title string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
