package view

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectDefinitionFile is the view definition looked up in a project
// directory.
const ProjectDefinitionFile = ".boardd.toml"

// ErrInvalidDefinition indicates a view definition file that exists but
// cannot be parsed.
var ErrInvalidDefinition = errors.New("invalid view definition")

// Definition is a named board view declared in a TOML file: the view-level
// groupBy key plus cosmetic column labels.
//
//	[view]
//	name = "sprint"
//	group_by = "status"
//
//	[view.labels]
//	todo = "To Do"
//	done = "Done"
type Definition struct {
	Name    string
	GroupBy string
	Labels  map[string]string
}

// IsZero reports whether no definition was loaded.
func (d Definition) IsZero() bool {
	return d.Name == "" && d.GroupBy == "" && len(d.Labels) == 0
}

// Context folds the definition into a view context as the view-level source.
func (d Definition) Context(base Context) Context {
	base.View = d.GroupBy
	if len(d.Labels) > 0 {
		merged := make(map[string]string, len(d.Labels)+len(base.Labels))
		for k, v := range base.Labels {
			merged[k] = v
		}
		for k, v := range d.Labels {
			merged[k] = v
		}
		base.Labels = merged
	}
	return base
}

// LoadDefinitions loads and merges the project and user view definitions.
// The project definition wins field-by-field; labels merge with project
// entries overriding user entries. Missing files are silently ignored;
// a zero Definition with no error means neither file exists. Files that
// exist but fail to parse return an error.
//
// projectPath is a directory searched for ProjectDefinitionFile (empty to
// skip); userPath is the full path to the user definition file (empty to
// skip).
func LoadDefinitions(projectPath, userPath string) (Definition, error) {
	var merged Definition

	if userPath != "" {
		user, err := loadTOML(userPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return Definition{}, err
			}
		} else {
			merged = mergeDefinitions(merged, user)
		}
	}

	if projectPath != "" {
		projectFile := filepath.Join(projectPath, ProjectDefinitionFile)
		project, err := loadTOML(projectFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return Definition{}, err
			}
		} else {
			merged = mergeDefinitions(merged, project)
		}
	}

	return merged, nil
}

// mergeDefinitions overlays next on top of base.
func mergeDefinitions(base, next Definition) Definition {
	if next.Name != "" {
		base.Name = next.Name
	}
	if next.GroupBy != "" {
		base.GroupBy = next.GroupBy
	}
	if len(next.Labels) > 0 {
		if base.Labels == nil {
			base.Labels = make(map[string]string, len(next.Labels))
		}
		for k, v := range next.Labels {
			base.Labels[k] = v
		}
	}
	return base
}

// loadTOML loads a single view definition file.
func loadTOML(path string) (Definition, error) {
	var file struct {
		View struct {
			Name    string            `toml:"name"`
			GroupBy string            `toml:"group_by"`
			Labels  map[string]string `toml:"labels"`
		} `toml:"view"`
	}

	if _, err := os.Stat(path); err != nil {
		return Definition{}, err
	}

	if _, err := toml.DecodeFile(path, &file); err != nil {
		return Definition{}, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, path, err)
	}

	return Definition{
		Name:    file.View.Name,
		GroupBy: file.View.GroupBy,
		Labels:  file.View.Labels,
	}, nil
}
