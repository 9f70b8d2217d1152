package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"
)

const migrationUpTemplate = `-- Migration: {{.Name}}
-- Created: {{.Timestamp}}
-- Description: {{.Description}}

-- Write your UP migration SQL here

`

const migrationDownTemplate = `-- Migration: {{.Name}} (Rollback)
-- Created: {{.Timestamp}}
-- Description: Rollback for {{.Description}}

-- Write your DOWN migration SQL here

`

// MigrationFile describes a freshly created up/down migration pair.
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes a new up/down migration file pair into
// migrationsDir. The version prefix is the current timestamp in
// YYYYMMDDHHMMSS form so files sort in creation order.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now()
	version := now.Format("20060102150405")

	baseName := fmt.Sprintf("%s_%s", version, sanitizeName(name))

	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   now.Format(time.RFC3339),
		UpPath:      filepath.Join(migrationsDir, baseName+".up.sql"),
		DownPath:    filepath.Join(migrationsDir, baseName+".down.sql"),
	}

	if err := writeMigrationFile(mf.UpPath, migrationUpTemplate, mf); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}

	if err := writeMigrationFile(mf.DownPath, migrationDownTemplate, mf); err != nil {
		// Do not leave a dangling up file behind
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}

	return mf, nil
}

func writeMigrationFile(path, tmplContent string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

// sanitizeName lowercases a migration name and collapses separator runs
// into single underscores, dropping any other characters.
func sanitizeName(name string) string {
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			result = append(result, c)
		case c >= 'A' && c <= 'Z':
			result = append(result, c+'a'-'A')
		case c >= '0' && c <= '9':
			result = append(result, c)
		case c == ' ' || c == '-' || c == '_':
			if len(result) > 0 && result[len(result)-1] != '_' {
				result = append(result, '_')
			}
		}
	}
	if len(result) > 0 && result[len(result)-1] == '_' {
		result = result[:len(result)-1]
	}
	return string(result)
}

// ListMigrations returns the base names of all migration pairs found in
// migrationsDir, without the .up.sql/.down.sql suffixes. A missing
// directory yields an empty list.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]string, 0)
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) > 7 && name[len(name)-7:] == ".up.sql" {
			baseName := name[:len(name)-7]
			if !seen[baseName] {
				seen[baseName] = true
				migrations = append(migrations, baseName)
			}
		}
	}

	return migrations, nil
}
