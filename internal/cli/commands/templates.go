package commands

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed all:templates
var templateFS embed.FS

// templateExt marks files rendered with text/template; the suffix is dropped
// on write.
const templateExt = ".tmpl"

// scaffoldData fills the placeholders of the embedded templates.
type scaffoldData struct {
	BackendURL string
	Database   string
}

// scaffoldFile is one rendered template file.
type scaffoldFile struct {
	Path    string // relative to the target directory, slash separated
	Content []byte
}

// renderScaffold renders every file of an embedded template.
func renderScaffold(name string, data scaffoldData) ([]scaffoldFile, error) {
	root := path.Join("templates", name)
	var files []scaffoldFile

	err := fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := templateFS.ReadFile(p)
		if err != nil {
			return err
		}

		rel := strings.TrimPrefix(p, root+"/")
		if strings.HasSuffix(rel, templateExt) {
			rel = strings.TrimSuffix(rel, templateExt)
			tmpl, err := template.New(rel).Option("missingkey=error").Parse(string(content))
			if err != nil {
				return fmt.Errorf("template %s: %w", rel, err)
			}
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				return fmt.Errorf("template %s: %w", rel, err)
			}
			content = buf.Bytes()
		}

		files = append(files, scaffoldFile{Path: dotfile(rel), Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	return files, nil
}

// writeScaffold writes files under dir and returns the paths it wrote.
// Existing files are kept unless force is set.
func writeScaffold(dir string, files []scaffoldFile, force bool) ([]string, error) {
	var written []string
	for _, f := range files {
		target := filepath.Join(dir, filepath.FromSlash(f.Path))
		if !force {
			if _, err := os.Stat(target); err == nil {
				continue
			}
		}
		if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
			return written, err
		}
		if err := os.WriteFile(target, f.Content, 0600); err != nil {
			return written, err
		}
		written = append(written, f.Path)
	}
	return written, nil
}

// dotfile maps embedded names that cannot start with a dot ("gitignore").
func dotfile(rel string) string {
	dir, base := path.Split(rel)
	if base == "gitignore" {
		return dir + ".gitignore"
	}
	return rel
}

// groupTemplateFiles groups files by top-level directory for display.
func groupTemplateFiles(files []string) map[string][]string {
	groups := map[string][]string{
		"config":   {},
		"examples": {},
	}
	for _, f := range files {
		if strings.HasPrefix(f, "examples/") {
			groups["examples"] = append(groups["examples"], f)
		} else {
			groups["config"] = append(groups["config"], f)
		}
	}
	return groups
}
