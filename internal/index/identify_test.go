package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
)

const testBaseURL = "http://w3.tnfsh.tn.edu.tw/deanofstudies/course/"

func newTestIdentifier() *Identifier {
	return NewIdentifier(testBaseURL, zap.NewNop())
}

func TestIdentifyDecisionTable(t *testing.T) {
	cases := []struct {
		input string
		want  *Identification
	}{
		{"", nil},
		{"T", nil},
		{"王大明", &Identification{Role: models.RoleTeacher, MatchCase: "T1b", Target: "王大明"}},
		{"Tim", &Identification{Role: models.RoleTeacher, MatchCase: "T1a", Target: "Tim"}},
		// A leading T on a pure Latin string is part of the name.
		{"TTim", &Identification{Role: models.RoleTeacher, MatchCase: "T1a", Target: "TTim"}},
		{"JA04王大明", &Identification{Role: models.RoleTeacher, MatchCase: "T2", Target: "王大明", ID: "TJA04"}},
		{"JA04", &Identification{Role: models.RoleTeacher, MatchCase: "T3", ID: "TJA04"}},
		{"TJA04王大明", &Identification{Role: models.RoleTeacher, MatchCase: "T4", Target: "王大明", ID: "TJA04"}},
		{"TJA04", &Identification{Role: models.RoleTeacher, MatchCase: "T5", ID: "TJA04"}},
		{"T王大明", &Identification{Role: models.RoleTeacher, MatchCase: "T6b", Target: "王大明"}},
		{"TNicole魏", &Identification{Role: models.RoleTeacher, MatchCase: "T6c", Target: "Nicole"}},
		{"T王大明Nicole", &Identification{Role: models.RoleTeacher, MatchCase: "T6d", Target: "Nicole"}},
		{"T03", &Identification{Role: models.RoleTeacher, MatchCase: "fallback", ID: "TT03"}},
		{"T@zhen", nil},
		{"101", &Identification{Role: models.RoleClass, MatchCase: "C1", Target: "101"}},
		{"110123", &Identification{Role: models.RoleClass, MatchCase: "C3", Target: "123", ID: "C110123"}},
		{"110123123", &Identification{Role: models.RoleClass, MatchCase: "C2", Target: "123", ID: "C110123"}},
		{"C101", &Identification{Role: models.RoleClass, MatchCase: "C6", Target: "101"}},
		{"C110123", &Identification{Role: models.RoleClass, MatchCase: "C5", Target: "123", ID: "C110123"}},
		{"C110123123", &Identification{Role: models.RoleClass, MatchCase: "C4", Target: "123", ID: "C110123"}},
		{"Czzzzz", &Identification{Role: models.RoleTeacher, MatchCase: "T1a", Target: "Czzzzz"}},
	}

	id := newTestIdentifier()
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got := id.Identify(tc.input)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestIdentifyStripsURL(t *testing.T) {
	id := newTestIdentifier()

	got := id.Identify(testBaseURL + "TJA04.html")
	require.NotNil(t, got)
	assert.Equal(t, "TJA04", got.ID)
	assert.Equal(t, models.RoleTeacher, got.Role)

	got = id.Identify(testBaseURL + "C110123.HTML")
	require.NotNil(t, got)
	assert.Equal(t, "C110123", got.ID)
	assert.Equal(t, models.RoleClass, got.Role)
}

// Identification is pure and idempotent: re-identifying the derived id
// reproduces the same role and id.
func TestIdentifyIdempotence(t *testing.T) {
	id := newTestIdentifier()
	inputs := []string{"JA04王大明", "TJA04", "110123", "C110123123", "JA04"}

	for _, input := range inputs {
		first := id.Identify(input)
		require.NotNil(t, first, input)
		require.NotEmpty(t, first.ID, input)
		second := id.Identify(first.ID)
		require.NotNil(t, second, input)
		assert.Equal(t, first.Role, second.Role, input)
		assert.Equal(t, first.ID, second.ID, input)
	}
}
