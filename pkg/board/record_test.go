package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Normalizes(t *testing.T) {
	rec, ok := Record(RawItem{
		"id":       float64(42),
		"title":    "fix the flaky test",
		"status":   "doing",
		"urgent":   true,
		"estimate": 2.5,
		"labels":   []any{"bug", "ci"},
	})

	require.True(t, ok)
	assert.Equal(t, "42", rec.ID)
	assert.Equal(t, "fix the flaky test", rec.Title)
	assert.Equal(t, "doing", rec.Props["status"])
	assert.Equal(t, "true", rec.Props["urgent"])
	assert.Equal(t, "2.5", rec.Props["estimate"])
	assert.Equal(t, "bug", rec.Props["labels"])
}

func TestRecord_SkipsWithoutID(t *testing.T) {
	_, ok := Record(RawItem{"title": "no identifier"})
	assert.False(t, ok)

	_, ok = Record(RawItem{"id": ""})
	assert.False(t, ok)

	_, ok = Record(nil)
	assert.False(t, ok)
}

func TestRecord_DropsUnusableProps(t *testing.T) {
	rec, ok := Record(RawItem{
		"id":     "7",
		"status": "todo",
		"nested": map[string]any{"x": 1},
		"blank":  "",
		"nil":    nil,
		"empty":  []any{},
	})

	require.True(t, ok)
	assert.Equal(t, map[string]string{"status": "todo"}, rec.Props)
}

func TestRecords_PreservesOrderAndSkipsMalformed(t *testing.T) {
	records := Records([]RawItem{
		{"id": "a"},
		{"title": "malformed, no id"},
		{"id": "b", "status": "done"},
		nil,
		{"id": "c"},
	})

	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "c", records[2].ID)
}

func TestProp_AbsentAndEmpty(t *testing.T) {
	rec := TaskRecord{ID: "1", Props: map[string]string{"status": "todo"}}

	v, ok := rec.Prop("status")
	assert.True(t, ok)
	assert.Equal(t, "todo", v)

	_, ok = rec.Prop("priority")
	assert.False(t, ok)

	_, ok = TaskRecord{ID: "2"}.Prop("status")
	assert.False(t, ok)
}

func TestKey_IsNone(t *testing.T) {
	assert.True(t, KeyNone.IsNone())
	assert.True(t, Key("").IsNone())
	assert.False(t, Key("status").IsNone())
	assert.Equal(t, "none", Key("").String())
	assert.Equal(t, "status", Key("status").String())
}
