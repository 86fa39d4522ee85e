package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewsTestIndex() *FullIndex {
	idx := &FullIndex{
		LastUpdate: "113/9/2",
		Teacher: CategoryMap{
			"國文科": {
				"TA01": {Target: "王大明", Category: "國文科", URL: "TA01.html"},
				"TA02": {Target: "李小美", Category: "國文科", URL: "TA02.html"},
			},
			"英文科": {
				"TB01": {Target: "王大明", Category: "英文科", URL: "TB01.html"},
				"TB02": {Target: "王大明", Category: "英文科", URL: "TB02.html"},
			},
		},
		Class: CategoryMap{
			"高一": {
				"C110101": {Target: "101", Category: "高一", URL: "C110101.html"},
			},
		},
	}
	idx.BuildViews()
	return idx
}

func TestBuildViewsPartitionsNames(t *testing.T) {
	idx := viewsTestIndex()

	// Unique and conflicting key-sets are disjoint.
	for name := range idx.TargetToUniqueInfo {
		assert.NotContains(t, idx.TargetToConflictingIDs, name)
	}

	assert.Contains(t, idx.TargetToUniqueInfo, "李小美")
	assert.Contains(t, idx.TargetToUniqueInfo, "101")

	ids := idx.TargetToConflictingIDs["王大明"]
	require.GreaterOrEqual(t, len(ids), 2)
	assert.ElementsMatch(t, []string{"TA01", "TB01", "TB02"}, ids)

	// Every conflicting id resolves through the global id view.
	for _, id := range ids {
		info, ok := idx.IDToInfo[id]
		require.True(t, ok, id)
		assert.Equal(t, id, info.ID())
	}
}

func TestBuildViewsEveryIDInOneBucket(t *testing.T) {
	idx := viewsTestIndex()

	for id, info := range idx.IDToInfo {
		seen := 0
		for _, m := range []CategoryMap{idx.Teacher, idx.Class} {
			for _, items := range m {
				if _, ok := items[id]; ok {
					seen++
				}
			}
		}
		assert.Equal(t, 1, seen, "id %s (%s)", id, info.Target)
	}
}

func TestTargetToURLDropsConflicts(t *testing.T) {
	idx := viewsTestIndex()
	urls := idx.TargetToURL()

	assert.Contains(t, urls, "李小美")
	assert.NotContains(t, urls, "王大明")
}

// Derived views are recomputed after a JSON round-trip, never serialised.
func TestFullIndexRoundTrip(t *testing.T) {
	idx := viewsTestIndex()

	raw, err := json.Marshal(idx)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "id_to_info")

	var loaded FullIndex
	require.NoError(t, json.Unmarshal(raw, &loaded))
	assert.Nil(t, loaded.IDToInfo)

	loaded.BuildViews()
	assert.Equal(t, idx.TargetToConflictingIDs, loaded.TargetToConflictingIDs)
	assert.Equal(t, idx.TargetToUniqueInfo, loaded.TargetToUniqueInfo)
}

func TestTargetInfoDerivations(t *testing.T) {
	teacher := TargetInfo{Target: "王大明", Category: "國文科", URL: "TA01.html"}
	assert.Equal(t, "TA01", teacher.ID())
	assert.Equal(t, RoleTeacher, teacher.Role())
	assert.Equal(t, "A", teacher.IDPrefix())
	assert.Equal(t, "01", teacher.IDSuffix())

	class := TargetInfo{Target: "307", Category: "高三", URL: "C101307.html"}
	assert.Equal(t, "C101307", class.ID())
	assert.Equal(t, RoleClass, class.Role())

	other := TargetInfo{Target: "王大明", Category: "英文科", URL: "sub/TA01.HTML"}
	assert.True(t, teacher.Equal(other))
}

func TestAllTargetsDeterministicOrder(t *testing.T) {
	idx := viewsTestIndex()
	first := idx.AllTargets()
	second := idx.AllTargets()
	assert.Equal(t, first, second)
	assert.Len(t, first, 5)
	// Teachers precede classes.
	assert.Equal(t, RoleTeacher, first[0].Role())
	assert.Equal(t, RoleClass, first[len(first)-1].Role())
}
