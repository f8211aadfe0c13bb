package screen

import (
	"fmt"

	"github.com/psychotest/psychotest/internal/auth"
	"github.com/psychotest/psychotest/internal/relation"
)

// Screen is one read-only page: the role allowed to see it, the read it
// performs and the notice shown when that read fails.
type Screen struct {
	Name   string
	Role   auth.Role
	Spec   relation.Spec
	Notice string
}

// Where returns a copy of s whose read carries an extra exact-match filter.
func (s Screen) Where(column string, value any) Screen {
	s.Spec = s.Spec.WithFilter(column, value)
	return s
}

// clientEdge is the client a roster entry or assignment points at, with the
// account email lifted in from users.
func clientEdge(fields ...relation.Field) relation.Edge {
	return relation.Edge{
		Name:        "client",
		Table:       "clients",
		Cardinality: relation.One,
		Fields:      fields,
		Edges: []relation.Edge{
			{
				Name:        "user",
				Table:       "users",
				Cardinality: relation.One,
				Fields:      []relation.Field{{Name: "email"}},
			},
		},
	}
}

var testEdge = relation.Edge{
	Name:        "test",
	Table:       "tests",
	Cardinality: relation.One,
	Fields:      []relation.Field{{Name: "title"}},
}

// TherapistAssignments lists the tests a therapist has assigned, newest first.
var TherapistAssignments = Screen{
	Name: "therapist_assignments",
	Role: auth.RoleTherapist,
	Spec: relation.Spec{
		Table:      "test_assignments",
		ScopeField: "therapist_id",
		Fields: []relation.Field{
			{Name: "id", Fallback: ""},
			{Name: "status"},
			{Name: "assigned_at", DisplayDate: true},
			{Name: "due_date", DisplayDate: true},
			{Name: "completed_at", DisplayDate: true},
		},
		Edges: []relation.Edge{
			clientEdge(relation.Field{Name: "name"}),
			testEdge,
		},
		Order: &relation.Order{Column: "assigned_at", Direction: relation.Desc},
	},
	Notice: "Could not load assigned tests. Please try again later.",
}

// TherapistClientAssignments is the per-client view of a therapist's
// assignments. Dates are passed through for the presentation layer to group on.
var TherapistClientAssignments = Screen{
	Name: "therapist_client_assignments",
	Role: auth.RoleTherapist,
	Spec: relation.Spec{
		Table:      "test_assignments",
		ScopeField: "therapist_id",
		Fields: []relation.Field{
			{Name: "id", Fallback: ""},
			{Name: "client_id", Fallback: ""},
			{Name: "status"},
			{Name: "assigned_at"},
			{Name: "due_date"},
		},
		Edges: []relation.Edge{
			clientEdge(relation.Field{Name: "name"}),
			testEdge,
		},
		Order: &relation.Order{Column: "assigned_at", Direction: relation.Desc},
	},
	Notice: "Could not load client assignments. Please try again later.",
}

// TherapistRoster lists the clients on a therapist's roster.
var TherapistRoster = Screen{
	Name: "therapist_roster",
	Role: auth.RoleTherapist,
	Spec: relation.Spec{
		Table:      "client_records",
		ScopeField: "therapist_id",
		Fields: []relation.Field{
			{Name: "id", Fallback: ""},
			{Name: "notes", Fallback: ""},
			{Name: "added_at", Column: "created_at", DisplayDate: true},
		},
		Edges: []relation.Edge{
			clientEdge(relation.Field{Name: "id", Fallback: ""}, relation.Field{Name: "name"}),
		},
		Order: &relation.Order{Column: "created_at", Direction: relation.Desc},
	},
	Notice: "Could not load your clients. Please try again later.",
}

// AdminTests lists the whole test catalog with each test's assignments.
var AdminTests = Screen{
	Name: "admin_tests",
	Role: auth.RoleAdmin,
	Spec: relation.Spec{
		Table: "tests",
		Fields: []relation.Field{
			{Name: "id", Fallback: ""},
			{Name: "title"},
			{Name: "description", Fallback: ""},
			{Name: "duration_minutes", Fallback: 0},
			{Name: "is_active", Fallback: false},
			{Name: "created_at", DisplayDate: true},
		},
		Edges: []relation.Edge{
			{
				Name:         "assignments",
				Table:        "test_assignments",
				Cardinality:  relation.Many,
				RemoteColumn: "test_id",
				Fields:       []relation.Field{{Name: "id", Fallback: ""}, {Name: "status"}},
			},
		},
		Order: &relation.Order{Column: "created_at", Direction: relation.Desc},
	},
	Notice: "Could not load tests. Please try again later.",
}

// AdminUsers lists every profile with its account email.
var AdminUsers = Screen{
	Name: "admin_users",
	Role: auth.RoleAdmin,
	Spec: relation.Spec{
		Table: "profiles",
		Fields: []relation.Field{
			{Name: "id", Fallback: ""},
			{Name: "name"},
			{Name: "role"},
			{Name: "created_at", DisplayDate: true},
		},
		Edges: []relation.Edge{
			{
				Name:        "user",
				Table:       "users",
				Cardinality: relation.One,
				LocalColumn: "id",
				Fields:      []relation.Field{{Name: "email"}},
			},
		},
		Order: &relation.Order{Column: "name", Direction: relation.Asc},
	},
	Notice: "Could not load users. Please try again later.",
}

// All lists every screen served.
var All = []Screen{
	TherapistAssignments,
	TherapistClientAssignments,
	TherapistRoster,
	AdminTests,
	AdminUsers,
}

// Validate checks every screen's read for colliding view keys.
func Validate() error {
	for _, s := range All {
		if err := s.Spec.Validate(); err != nil {
			return fmt.Errorf("screen %s: %w", s.Name, err)
		}
	}
	return nil
}
