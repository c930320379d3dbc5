package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docstruct/internal/structure"
)

// createComponentFolders makes one folder per component under base, each
// holding a README.txt that describes the component. Repeated names get a
// numeric suffix. Existing folders are left untouched. It returns the folders it created.
func createComponentFolders(base string, components []*structure.Component) ([]string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", base, err)
	}

	var created []string
	for i, name := range structure.Slugs(components) {
		c := components[i]
		dir := filepath.Join(base, name)
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.Mkdir(dir, 0o755); err != nil {
			return created, fmt.Errorf("create %s: %w", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte(componentReadme(c)), 0o644); err != nil {
			return created, fmt.Errorf("write readme for %s: %w", name, err)
		}
		created = append(created, dir)
	}
	return created, nil
}

func componentReadme(c *structure.Component) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Component %s: %s\n", c.Number, c.Title)
	if c.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", c.Category)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "\nDescription: %s\n", c.Description)
	}
	b.WriteString("\nPlace documents for this component in this folder.\n")
	return b.String()
}
