package models

import "sort"

// CategoryMap nests directory entries: category → id → TargetInfo.
type CategoryMap map[string]map[string]TargetInfo

// FullIndex is the parsed upstream directory: the nested teacher and class
// maps plus three denormalised views. The views are derived data — they are
// excluded from JSON and recomputed via BuildViews after every load.
type FullIndex struct {
	LastUpdate string      `json:"last_update"`
	Teacher    CategoryMap `json:"teacher"`
	Class      CategoryMap `json:"class"`

	IDToInfo               map[string]TargetInfo `json:"-"`
	TargetToUniqueInfo     map[string]TargetInfo `json:"-"`
	TargetToConflictingIDs map[string][]string   `json:"-"`
}

// BuildViews recomputes the denormalised lookup tables from the nested
// maps. A display name lands in TargetToUniqueInfo exactly when one id
// carries it; otherwise all carrying ids go to TargetToConflictingIDs.
// Derivation iterates categories and ids in sorted order so a reloaded
// index produces identical views.
func (i *FullIndex) BuildViews() {
	i.IDToInfo = make(map[string]TargetInfo)
	i.TargetToUniqueInfo = make(map[string]TargetInfo)
	i.TargetToConflictingIDs = make(map[string][]string)

	for _, info := range i.orderedInfos() {
		id := info.ID()
		i.IDToInfo[id] = info

		if ids, conflicted := i.TargetToConflictingIDs[info.Target]; conflicted {
			i.TargetToConflictingIDs[info.Target] = append(ids, id)
			continue
		}
		if prev, seen := i.TargetToUniqueInfo[info.Target]; seen {
			if prev.ID() == id {
				continue
			}
			delete(i.TargetToUniqueInfo, info.Target)
			i.TargetToConflictingIDs[info.Target] = []string{prev.ID(), id}
			continue
		}
		i.TargetToUniqueInfo[info.Target] = info
	}
}

// TargetToURL derives the legacy display-name → URL map, dropping any name
// in the conflict set (those cannot be displayed by name alone).
func (i *FullIndex) TargetToURL() map[string]string {
	result := make(map[string]string, len(i.TargetToUniqueInfo))
	for name, info := range i.TargetToUniqueInfo {
		result[name] = info.URL
	}
	return result
}

// AllTargets lists every directory entry in deterministic order, teachers
// first. The bulk preload iterates this.
func (i *FullIndex) AllTargets() []TargetInfo {
	return i.orderedInfos()
}

// ClassCodes returns the set of class display keys, used to tell class
// sources from teacher sources in the slot log.
func (i *FullIndex) ClassCodes() map[string]struct{} {
	codes := make(map[string]struct{})
	for _, items := range i.Class {
		for _, info := range items {
			codes[info.Target] = struct{}{}
		}
	}
	return codes
}

func (i *FullIndex) orderedInfos() []TargetInfo {
	var infos []TargetInfo
	for _, m := range []CategoryMap{i.Teacher, i.Class} {
		categories := make([]string, 0, len(m))
		for c := range m {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			ids := make([]string, 0, len(m[c]))
			for id := range m[c] {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				infos = append(infos, m[c][id])
			}
		}
	}
	return infos
}
