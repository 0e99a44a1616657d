package jevent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffPatchMinimality(t *testing.T) {
	base := map[string]interface{}{"start": "2020-01-01T09:00:00", "title": "Standup"}
	modified := map[string]interface{}{"start": "2020-01-01T09:00:00", "title": "Standup"}

	patch := DiffPatch(base, modified)
	assert.Empty(t, patch, "identical documents must diff to an empty patch")
}

func TestDiffPatchSingleField(t *testing.T) {
	base := map[string]interface{}{"start": "2020-01-01T09:00:00", "title": "Standup"}
	modified := map[string]interface{}{"start": "2020-01-01T09:00:00", "title": "Standup (moved)"}

	patch := DiffPatch(base, modified)
	assert.Equal(t, map[string]interface{}{"title": "Standup (moved)"}, patch)
}

func TestDiffPatchDeletedKeyBecomesNull(t *testing.T) {
	base := map[string]interface{}{"title": "Standup", "color": "blue"}
	modified := map[string]interface{}{"title": "Standup"}

	patch := DiffPatch(base, modified)
	assert.Equal(t, map[string]interface{}{"color": nil}, patch)
}

func TestApplyPatchRoundTrip(t *testing.T) {
	base := map[string]interface{}{"title": "Standup", "color": "blue"}
	modified := map[string]interface{}{"title": "Standup (moved)"}

	patch := DiffPatch(base, modified)
	applied := ApplyPatch(base, patch)

	assert.Equal(t, "Standup (moved)", applied["title"])
	assert.Equal(t, "blue", applied["color"])
}

func TestApplyPatchDeletesNullKeys(t *testing.T) {
	base := map[string]interface{}{"title": "Standup", "color": "blue"}
	patch := map[string]interface{}{"color": nil}

	applied := ApplyPatch(base, patch)
	_, ok := applied["color"]
	assert.False(t, ok)
	assert.Equal(t, "Standup", applied["title"])
}

func TestOverrideStripsForbiddenKeys(t *testing.T) {
	o := Override{"title": "Renamed", "uid": "should-not-survive"}
	stripped := o.StripForbiddenKeys()
	assert.Equal(t, Override{"title": "Renamed"}, stripped)
}
