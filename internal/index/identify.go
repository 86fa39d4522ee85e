package index

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
)

// Identification is the result of classifying a raw user key.
type Identification struct {
	Role      models.Role `json:"role"`
	MatchCase string      `json:"match_case"`
	Target    string      `json:"target,omitempty"`
	ID        string      `json:"id,omitempty"`
}

// Identifier normalises heterogeneous user input — URLs, ids with or
// without the role-letter prefix, localized names, class codes, or
// concatenations thereof — into a role plus display name and/or id.
type Identifier struct {
	ClassCodeLen int
	BaseURL      string
	logger       *zap.Logger
}

// NewIdentifier builds an identifier for the given upstream base URL.
func NewIdentifier(baseURL string, logger *zap.Logger) *Identifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Identifier{ClassCodeLen: 3, BaseURL: baseURL, logger: logger}
}

var (
	reLatin       = regexp.MustCompile(`^[A-Za-z]+$`)
	reHan         = regexp.MustCompile(`^\p{Han}+$`)
	reHanRun      = regexp.MustCompile(`\p{Han}+`)
	reLatinRun    = regexp.MustCompile(`[A-Za-z]+`)
	reResidue     = regexp.MustCompile(`[^A-Za-z0-9\p{Han}]`)
	reTeacherBody = regexp.MustCompile(`^([A-Za-z]*)([0-9]*)([A-Za-z\p{Han}]*)$`)
	reIDThenName  = regexp.MustCompile(`^([A-Za-z]+[0-9]+)(\p{Han}+)$`)
	reBareID      = regexp.MustCompile(`^[A-Za-z]+[0-9]+$`)
)

// Identify classifies text. It returns nil when the input cannot be
// recognised; non-alphanumeric residue only warns, it never rejects.
func (i *Identifier) Identify(text string) *Identification {
	originLen := len(text)
	if text == "" || len([]rune(text)) < 2 {
		return nil
	}

	base := strings.TrimPrefix(strings.TrimPrefix(i.BaseURL, "http://"), "https://")
	text = strings.TrimPrefix(strings.TrimPrefix(text, "http://"), "https://")
	text = strings.ReplaceAll(text, base, "")
	text = strings.TrimSuffix(strings.TrimSuffix(text, ".html"), ".HTML")
	isURL := len(text) != originLen

	if reResidue.MatchString(text) {
		i.logger.Warn("input contains characters outside letters, digits and CJK", zap.String("input", text))
	}
	if isURL && !i.looksLikeEntityURL(text) {
		i.logger.Warn("input looked like a URL but its stem is not a valid entity id", zap.String("input", text))
	}

	// Pure names win before any prefix interpretation, so "TTim" stays a
	// Latin teacher name rather than a T-prefixed code.
	if reLatin.MatchString(text) {
		return &Identification{Role: models.RoleTeacher, MatchCase: "T1a", Target: text}
	}
	if reHan.MatchString(text) {
		return &Identification{Role: models.RoleTeacher, MatchCase: "T1b", Target: text}
	}

	switch text[0] {
	case 'T':
		return i.identifyTeacherCode(text[1:])
	case 'C':
		return i.identifyClassCode(text[1:])
	default:
		return i.identifyBare(text)
	}
}

func (i *Identifier) identifyTeacherCode(body string) *Identification {
	m := reTeacherBody.FindStringSubmatch(body)
	if m == nil {
		i.logger.Warn("unrecognised teacher code", zap.String("input", "T"+body))
		return nil
	}
	prefix, suffix, target := m[1], m[2], m[3]

	switch {
	case prefix != "" && suffix != "" && target != "":
		// T4: T + id + name.
		if reHan.MatchString(target) {
			return &Identification{Role: models.RoleTeacher, MatchCase: "T4", Target: target, ID: "T" + prefix + suffix}
		}
		return nil
	case prefix != "" && suffix != "":
		return &Identification{Role: models.RoleTeacher, MatchCase: "T5", ID: "T" + prefix + suffix}
	case prefix == "" && suffix != "" && target == "":
		// Digits directly after the role letter: the letter doubles as the
		// id prefix, e.g. "T03" → "TT03".
		return &Identification{Role: models.RoleTeacher, MatchCase: "fallback", ID: "TT" + suffix}
	case prefix != "" && suffix == "" && target == "":
		return &Identification{Role: models.RoleTeacher, MatchCase: "T6a", Target: prefix}
	case prefix == "" && suffix == "" && target != "":
		if reHan.MatchString(target) {
			return &Identification{Role: models.RoleTeacher, MatchCase: "T6b", Target: target}
		}
		// Mixed CJK and Latin: only the Latin part is kept as the name.
		if reHanRun.MatchString(target) && reLatinRun.MatchString(target) {
			en := strings.Join(reLatinRun.FindAllString(target, -1), "")
			i.logger.Warn("mixed-script teacher name, keeping latin part", zap.String("input", "T"+target), zap.String("kept", en))
			return &Identification{Role: models.RoleTeacher, MatchCase: "T6d", Target: en}
		}
		return nil
	case prefix != "" && suffix == "" && target != "":
		if reHan.MatchString(target) {
			i.logger.Warn("mixed-script teacher name, keeping latin part", zap.String("input", "T"+prefix+target), zap.String("kept", prefix))
			return &Identification{Role: models.RoleTeacher, MatchCase: "T6c", Target: prefix}
		}
		return nil
	}
	return nil
}

func (i *Identifier) identifyClassCode(body string) *Identification {
	n := i.ClassCodeLen
	digits := regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, n))
	doubled := regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, n*2))
	repeated := regexp.MustCompile(fmt.Sprintf(`^([0-9]+)([0-9]{%d})([0-9]{%d})$`, n, n))

	if doubled.MatchString(body) {
		return &Identification{Role: models.RoleClass, MatchCase: "C5", Target: body[len(body)-n:], ID: "C" + body}
	}
	if digits.MatchString(body) {
		return &Identification{Role: models.RoleClass, MatchCase: "C6", Target: body}
	}
	if m := repeated.FindStringSubmatch(body); m != nil {
		front, mid, tail := m[1], m[2], m[3]
		if mid != tail {
			i.logger.Warn("repeated class code segments disagree", zap.String("mid", mid), zap.String("tail", tail))
		}
		return &Identification{Role: models.RoleClass, MatchCase: "C4", Target: tail, ID: "C" + front + mid}
	}
	i.logger.Warn("unrecognised class code", zap.String("input", "C"+body))
	return nil
}

func (i *Identifier) identifyBare(text string) *Identification {
	n := i.ClassCodeLen
	if m := reIDThenName.FindStringSubmatch(text); m != nil {
		return &Identification{Role: models.RoleTeacher, MatchCase: "T2", Target: m[2], ID: "T" + m[1]}
	}
	if reBareID.MatchString(text) {
		return &Identification{Role: models.RoleTeacher, MatchCase: "T3", ID: "T" + text}
	}
	if regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, n)).MatchString(text) {
		return &Identification{Role: models.RoleClass, MatchCase: "C1", Target: text}
	}
	if regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, n*2)).MatchString(text) {
		return &Identification{Role: models.RoleClass, MatchCase: "C3", Target: text[len(text)-n:], ID: "C" + text}
	}
	if m := regexp.MustCompile(fmt.Sprintf(`^([0-9]+)([0-9]{%d})([0-9]{%d})$`, n, n)).FindStringSubmatch(text); m != nil {
		front, mid, tail := m[1], m[2], m[3]
		if mid != tail {
			i.logger.Warn("repeated class code segments disagree", zap.String("mid", mid), zap.String("tail", tail))
		}
		return &Identification{Role: models.RoleClass, MatchCase: "C2", Target: tail, ID: "C" + front + mid}
	}
	i.logger.Warn("unrecognised key", zap.String("input", text))
	return nil
}

func (i *Identifier) looksLikeEntityURL(stem string) bool {
	if strings.HasPrefix(stem, "C") {
		return regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, i.ClassCodeLen*2)).MatchString(stem[1:])
	}
	if strings.HasPrefix(stem, "T") {
		return reBareID.MatchString(stem[1:])
	}
	return false
}
