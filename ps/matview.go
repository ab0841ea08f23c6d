package ps

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/nickyhof/matview/core"
)

// CatalogRoot is the directory holding every materialized view record.
const CatalogRoot = ".matview"

const (
	definitionSuffix = ".json"
	refreshSuffix    = ".refresh.json"
)

func definitionPath(name core.QualifiedObjectName) string {
	return path.Join(CatalogRoot, name.Catalog, name.Schema, name.Object+definitionSuffix)
}

func refreshStatePath(name core.QualifiedObjectName) string {
	return path.Join(CatalogRoot, name.Catalog, name.Schema, name.Object+refreshSuffix)
}

// IsRefreshStatePath reports whether a repository path holds refresh
// bookkeeping rather than catalog content.
func IsRefreshStatePath(filePath string) bool {
	return strings.HasPrefix(filePath, CatalogRoot+"/") && strings.HasSuffix(filePath, refreshSuffix)
}

// CreateMaterializedView stores a definition, replacing any previous one.
func (persistence *Persistence) CreateMaterializedView(name core.QualifiedObjectName, definition *core.MaterializedViewDefinition, identity core.Identity) (Transaction, error) {
	data, err := json.MarshalIndent(definition, "", "  ")
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to marshal materialized view: %w", err)
	}

	return persistence.WriteFileDirect(definitionPath(name), data, identity, "Creating materialized view "+name.String())
}

// GetMaterializedView reads a stored definition. A missing view yields an
// error wrapping ErrFileNotFound.
func (persistence *Persistence) GetMaterializedView(name core.QualifiedObjectName) (*core.MaterializedViewDefinition, error) {
	data, err := persistence.ReadFileDirect(definitionPath(name))
	if err != nil {
		return nil, fmt.Errorf("materialized view %s does not exist: %w", name, err)
	}

	var definition core.MaterializedViewDefinition
	if err := json.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to unmarshal materialized view %s: %w", name, err)
	}
	return &definition, nil
}

// ListMaterializedViews returns the names stored under catalog and schema.
// An empty schema lists every schema of the catalog; an empty catalog lists
// everything.
func (persistence *Persistence) ListMaterializedViews(catalog, schema string) ([]core.QualifiedObjectName, error) {
	catalogs := []string{catalog}
	if catalog == "" {
		var err error
		if catalogs, err = persistence.listDirs(CatalogRoot); err != nil {
			return nil, err
		}
	}

	var names []core.QualifiedObjectName
	for _, c := range catalogs {
		schemas := []string{schema}
		if schema == "" {
			var err error
			if schemas, err = persistence.listDirs(path.Join(CatalogRoot, c)); err != nil {
				return nil, err
			}
		}

		for _, s := range schemas {
			entries, err := persistence.ListEntriesDirect(path.Join(CatalogRoot, c, s))
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				if entry.IsDir || strings.HasSuffix(entry.Name, refreshSuffix) || !strings.HasSuffix(entry.Name, definitionSuffix) {
					continue
				}
				names = append(names, core.NewQualifiedObjectName(c, s, strings.TrimSuffix(entry.Name, definitionSuffix)))
			}
		}
	}
	return names, nil
}

func (persistence *Persistence) listDirs(dirPath string) ([]string, error) {
	entries, err := persistence.ListEntriesDirect(dirPath)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir {
			dirs = append(dirs, entry.Name)
		}
	}
	return dirs, nil
}

// DropMaterializedView removes the definition and its refresh state.
func (persistence *Persistence) DropMaterializedView(name core.QualifiedObjectName, identity core.Identity) (Transaction, error) {
	paths := []string{
		definitionPath(name),
		refreshStatePath(name),
	}

	return persistence.DeletePathDirect(paths, identity, "Dropping materialized view "+name.String())
}
