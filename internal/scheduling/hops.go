package scheduling

import (
	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
)

// Mode selects the feasibility rules of a search.
type Mode string

const (
	ModeRotation Mode = "rotation"
	ModeSwap     Mode = "swap"
)

// Direction names the side of a proposed move.
type Direction string

const (
	DirBwd Direction = "bwd"
	DirFwd Direction = "fwd"
)

// freedSet marks nodes the in-progress swap path would vacate.
type freedSet map[*CourseNode]struct{}

func newFreedSet(path []*CourseNode) freedSet {
	f := make(freedSet, len(path))
	for _, n := range path {
		f[n] = struct{}{}
	}
	return f
}

// IsFree reports whether node can absorb a move. A path-released node
// counts as free only in swap mode: rotation requires every step to land
// on an originally empty slot except the closing edge.
func IsFree(node *CourseNode, mode Mode, freed freedSet) bool {
	if node == nil {
		return false
	}
	if node.IsFree {
		return true
	}
	if mode == ModeSwap && freed != nil {
		_, ok := freed[node]
		return ok
	}
	return false
}

// IsValidCourseNode reports whether node has at most one teacher and one
// class; team-taught and merged cells do not qualify.
func IsValidCourseNode(node *CourseNode) bool {
	return len(node.Teachers) <= 1 && len(node.Classes) <= 1
}

// Neighbors lists every course node sharing a class with course, in build
// order — the graph is a union of cliques, one per class.
func Neighbors(course *CourseNode) []*CourseNode {
	class := soleClass(course)
	if class == nil {
		return nil
	}
	return class.Courses.Nodes()
}

// FindStreakStartIfFree walks course's class backward from its period
// toward 1 and returns the enclosing free block when that block's streak
// subsumes the queried range. The nearest present prior entry decides.
func FindStreakStartIfFree(course *CourseNode) *CourseNode {
	class := soleClass(course)
	if class == nil {
		return nil
	}
	for p := course.Time.Period - 1; p >= 1; p-- {
		candidate := class.Courses.Get(models.Slot{Weekday: course.Time.Weekday, Period: p})
		if candidate == nil {
			continue
		}
		if candidate.IsFree && candidate.Time.Streak >= (course.Time.Period-p)+course.Time.Streak {
			return candidate
		}
		return nil
	}
	return nil
}

// Get1Hop computes the node displaced if src's teacher took dst's time
// slot (bwd), or the symmetric forward case (fwd). The streak-fit rules
// are the core feasibility invariant: a free destination must be at least
// as long as the moved block, a busy destination must match it exactly.
func Get1Hop(src, dst *CourseNode, dir Direction, mode Mode, freed freedSet) *CourseNode {
	if dir == DirFwd {
		src, dst = dst, src
	}

	teacher := soleTeacher(src)
	if teacher == nil {
		return nil
	}
	target := dst.Time

	hop := teacher.Courses.Get(target.Slot())
	if hop == nil {
		// The teacher has no registered block starting at the target slot;
		// the slot may sit inside an enclosing free streak on src's side.
		candidate := FindStreakStartIfFree(src)
		if candidate != nil && IsFree(candidate, mode, freed) {
			return candidate
		}
		return nil
	}

	if IsFree(hop, mode, freed) {
		if hop.Time.Streak >= target.Streak {
			return hop
		}
		return nil
	}
	if hop.Time.Streak == target.Streak {
		return hop
	}
	return nil
}

func soleTeacher(course *CourseNode) *TeacherNode {
	if len(course.Teachers) != 1 {
		return nil
	}
	for _, t := range course.Teachers {
		return t
	}
	return nil
}

func soleClass(course *CourseNode) *ClassNode {
	if len(course.Classes) != 1 {
		return nil
	}
	for _, c := range course.Classes {
		return c
	}
	return nil
}
