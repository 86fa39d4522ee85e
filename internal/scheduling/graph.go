package scheduling

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/slotlog"
	appErrors "github.com/Skywind5487/tnfsh-timetable-core/pkg/errors"
)

// CourseNode is one lesson block (or free block) in the scheduling graph.
// BuildGraph does not add multi-teacher or multi-class cells, so they take
// no part in hop computations.
type CourseNode struct {
	Time     models.StreakTime
	IsFree   bool
	Subject  string
	Teachers map[string]*TeacherNode
	Classes  map[string]*ClassNode
}

func (c *CourseNode) String() string {
	owner := "?"
	for name := range c.Teachers {
		owner = name
	}
	if c.IsFree {
		for code := range c.Classes {
			owner = code
		}
		return fmt.Sprintf("%s@%s_", owner, c.Time)
	}
	return fmt.Sprintf("%s@%s", owner, c.Time)
}

// TeacherNode owns a teacher's slot map.
type TeacherNode struct {
	Name    string
	Courses *SlotMap
}

// ClassNode owns a class's slot map.
type ClassNode struct {
	Code    string
	Courses *SlotMap
}

// SlotMap is an insertion-ordered map keyed by a streak's starting slot.
// Lookup ignores streak length, matching the StreakTime identity rule;
// iteration order is build order, which keeps searches deterministic.
type SlotMap struct {
	order []models.Slot
	nodes map[models.Slot]*CourseNode
}

// NewSlotMap returns an empty slot map.
func NewSlotMap() *SlotMap {
	return &SlotMap{nodes: make(map[models.Slot]*CourseNode)}
}

// Get returns the node whose streak starts at slot, or nil.
func (m *SlotMap) Get(slot models.Slot) *CourseNode {
	return m.nodes[slot]
}

// Put registers node under its streak's starting slot.
func (m *SlotMap) Put(node *CourseNode) {
	slot := node.Time.Slot()
	if _, ok := m.nodes[slot]; !ok {
		m.order = append(m.order, slot)
	}
	m.nodes[slot] = node
}

// Nodes lists the map's nodes in insertion order.
func (m *SlotMap) Nodes() []*CourseNode {
	out := make([]*CourseNode, 0, len(m.order))
	for _, slot := range m.order {
		out = append(out, m.nodes[slot])
	}
	return out
}

// Len returns the number of registered nodes.
func (m *SlotMap) Len() int {
	return len(m.order)
}

// Graph is the bipartite teacher/class scheduling graph. It is immutable
// after construction; concurrent searches against one graph are read-only.
type Graph struct {
	BuildID  string
	Teachers map[string]*TeacherNode
	Classes  map[string]*ClassNode
}

// BuildGraph synthesises course nodes from the streak log. Entries whose
// source is a class code drive the build; the matching teacher entry is
// cross-checked (same streak, single counterpart naming the class, equal
// subject) and mismatches are dropped — they cannot participate in
// lossless moves.
func BuildGraph(log *slotlog.Log, idx *models.FullIndex, logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Graph{
		BuildID:  uuid.NewString(),
		Teachers: make(map[string]*TeacherNode),
		Classes:  make(map[string]*ClassNode),
	}
	for _, info := range idx.AllTargets() {
		switch info.Role() {
		case models.RoleTeacher:
			g.Teachers[info.Target] = &TeacherNode{Name: info.Target, Courses: NewSlotMap()}
		case models.RoleClass:
			g.Classes[info.Target] = &ClassNode{Code: info.Target, Courses: NewSlotMap()}
		}
	}

	classCodes := idx.ClassCodes()
	dropped := 0
	for _, e := range log.Entries() {
		if _, isClass := classCodes[e.Source]; !isClass {
			continue
		}
		class := g.Classes[e.Source]
		if class == nil {
			class = &ClassNode{Code: e.Source, Courses: NewSlotMap()}
			g.Classes[e.Source] = class
		}

		if e.Course == nil {
			node := &CourseNode{
				Time:     e.Time,
				IsFree:   true,
				Teachers: map[string]*TeacherNode{},
				Classes:  map[string]*ClassNode{class.Code: class},
			}
			class.Courses.Put(node)
			continue
		}

		if len(e.Course.Counterpart) != 1 {
			// Team teaching or merged classes: not eligible for hops.
			dropped++
			logger.Debug("dropping multi-counterpart cell",
				zap.String("class", e.Source), zap.Stringer("time", e.Time))
			continue
		}
		teacherName := e.Course.Counterpart[0].Participant

		teacherEntry, ok := log.Get(teacherName, e.Time.Slot())
		if !ok || teacherEntry.Course == nil ||
			teacherEntry.Time.Streak != e.Time.Streak ||
			len(teacherEntry.Course.Counterpart) != 1 ||
			teacherEntry.Course.Counterpart[0].Participant != e.Source ||
			teacherEntry.Course.Subject != e.Course.Subject {
			dropped++
			logger.Debug("dropping cell failing teacher cross-check",
				zap.String("class", e.Source),
				zap.String("teacher", teacherName),
				zap.Stringer("time", e.Time))
			continue
		}

		teacher := g.Teachers[teacherName]
		if teacher == nil {
			teacher = &TeacherNode{Name: teacherName, Courses: NewSlotMap()}
			g.Teachers[teacherName] = teacher
		}

		node := &CourseNode{
			Time:     e.Time,
			Subject:  e.Course.Subject,
			Teachers: map[string]*TeacherNode{teacher.Name: teacher},
			Classes:  map[string]*ClassNode{class.Code: class},
		}
		teacher.Courses.Put(node)
		class.Courses.Put(node)
	}

	logger.Info("scheduling graph built",
		zap.String("build_id", g.BuildID),
		zap.Int("teachers", len(g.Teachers)),
		zap.Int("classes", len(g.Classes)),
		zap.Int("dropped_cells", dropped))
	return g
}

// CourseNodeAt locates the teacher's lesson block covering (weekday,
// period), walking backwards from period to 1 to find the streak start.
// It fails when the teacher is unknown, the slot is outside any known
// streak, or the slot is a free period — there is nothing to move.
func (g *Graph) CourseNodeAt(teacherName string, weekday, period int) (*CourseNode, error) {
	teacher := g.Teachers[teacherName]
	if teacher == nil {
		return nil, appErrors.ErrLookup.Withf("unknown teacher %q", teacherName)
	}
	for p := period; p >= 1; p-- {
		node := teacher.Courses.Get(models.Slot{Weekday: weekday, Period: p})
		if node == nil {
			continue
		}
		if node.Time.Period+node.Time.Streak-1 < period {
			break
		}
		if node.IsFree {
			return nil, appErrors.ErrFreePeriod.Withf("%s has a free period at weekday %d period %d", teacherName, weekday, period)
		}
		return node, nil
	}
	return nil, appErrors.ErrLookup.Withf("no lesson for %s at weekday %d period %d", teacherName, weekday, period)
}
