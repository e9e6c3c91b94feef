package view

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDefinition(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefinitions_ProjectOnly(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, ProjectDefinitionFile, `
[view]
name = "sprint"
group_by = "status"

[view.labels]
todo = "To Do"
`)

	def, err := LoadDefinitions(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "sprint", def.Name)
	assert.Equal(t, "status", def.GroupBy)
	assert.Equal(t, "To Do", def.Labels["todo"])
}

func TestLoadDefinitions_ProjectOverridesUser(t *testing.T) {
	projectDir := t.TempDir()
	userDir := t.TempDir()
	writeDefinition(t, projectDir, ProjectDefinitionFile, `
[view]
group_by = "status"

[view.labels]
todo = "Backlog"
`)
	userPath := writeDefinition(t, userDir, "view.toml", `
[view]
name = "personal"
group_by = "priority"

[view.labels]
todo = "To Do"
done = "Shipped"
`)

	def, err := LoadDefinitions(projectDir, userPath)
	require.NoError(t, err)

	// Project group_by wins; user name survives because the project file
	// does not set one; labels merge with project entries winning per key.
	assert.Equal(t, "status", def.GroupBy)
	assert.Equal(t, "personal", def.Name)
	assert.Equal(t, "Backlog", def.Labels["todo"])
	assert.Equal(t, "Shipped", def.Labels["done"])
}

func TestLoadDefinitions_MissingFilesAreFine(t *testing.T) {
	def, err := LoadDefinitions(t.TempDir(), filepath.Join(t.TempDir(), "absent.toml"))

	require.NoError(t, err)
	assert.True(t, def.IsZero())
}

func TestLoadDefinitions_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, ProjectDefinitionFile, `[view`)

	_, err := LoadDefinitions(dir, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestDefinition_Context(t *testing.T) {
	def := Definition{
		GroupBy: "status",
		Labels:  map[string]string{"todo": "To Do"},
	}

	ctx := def.Context(Context{
		Query:  "priority",
		Labels: map[string]string{"done": "Done"},
	})

	assert.Equal(t, "status", ctx.View)
	assert.Equal(t, "priority", ctx.Query)
	assert.Equal(t, "To Do", ctx.Labels["todo"])
	assert.Equal(t, "Done", ctx.Labels["done"])
}

func TestDefinition_ContextZeroLeavesViewEmpty(t *testing.T) {
	ctx := Definition{}.Context(Context{Query: "priority"})

	assert.Empty(t, ctx.View)
	assert.Equal(t, "priority", ctx.Query)
}
