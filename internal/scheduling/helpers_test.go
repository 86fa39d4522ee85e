package scheduling

import (
	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
)

// graphBuilder assembles small virtual graphs for search tests. Free slots
// are wired into both the class and the owning teacher's slot map, the way
// the search scenarios describe them.
type graphBuilder struct {
	teachers map[string]*TeacherNode
	classes  map[string]*ClassNode
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		teachers: make(map[string]*TeacherNode),
		classes:  make(map[string]*ClassNode),
	}
}

func (b *graphBuilder) teacher(name string) *TeacherNode {
	if t, ok := b.teachers[name]; ok {
		return t
	}
	t := &TeacherNode{Name: name, Courses: NewSlotMap()}
	b.teachers[name] = t
	return t
}

func (b *graphBuilder) class(code string) *ClassNode {
	if c, ok := b.classes[code]; ok {
		return c
	}
	c := &ClassNode{Code: code, Courses: NewSlotMap()}
	b.classes[code] = c
	return c
}

func (b *graphBuilder) busy(teacher, class, subject string, weekday, period, streak int) *CourseNode {
	t := b.teacher(teacher)
	c := b.class(class)
	node := &CourseNode{
		Time:     models.StreakTime{Weekday: weekday, Period: period, Streak: streak},
		Subject:  subject,
		Teachers: map[string]*TeacherNode{t.Name: t},
		Classes:  map[string]*ClassNode{c.Code: c},
	}
	t.Courses.Put(node)
	c.Courses.Put(node)
	return node
}

func (b *graphBuilder) free(teacher, class string, weekday, period, streak int) *CourseNode {
	t := b.teacher(teacher)
	c := b.class(class)
	node := &CourseNode{
		Time:     models.StreakTime{Weekday: weekday, Period: period, Streak: streak},
		IsFree:   true,
		Teachers: map[string]*TeacherNode{t.Name: t},
		Classes:  map[string]*ClassNode{c.Code: c},
	}
	t.Courses.Put(node)
	c.Courses.Put(node)
	return node
}

func pathsContain(paths [][]*CourseNode, want []*CourseNode) bool {
	for _, p := range paths {
		if samePath(p, want) {
			return true
		}
	}
	return false
}

func samePath(a, b []*CourseNode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
