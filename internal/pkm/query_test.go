package pkm

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestBookmarkQuery_Normalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		q, err := BookmarkQuery{}.normalize()
		if err != nil {
			t.Fatalf("normalize() error = %v", err)
		}
		if q.Sort != SortCreatedAt || q.Order != SortDesc {
			t.Errorf("sort = %s %s, want createdAt desc", q.Sort, q.Order)
		}
		if q.Page != 1 || q.PageSize != DefaultPageSize {
			t.Errorf("page = %d size %d, want 1 and %d", q.Page, q.PageSize, DefaultPageSize)
		}
		if q.Offset() != 0 {
			t.Errorf("Offset() = %d, want 0", q.Offset())
		}
	})

	t.Run("page size is capped", func(t *testing.T) {
		q, err := BookmarkQuery{Page: 3, PageSize: 1000}.normalize()
		if err != nil {
			t.Fatalf("normalize() error = %v", err)
		}
		if q.PageSize != MaxPageSize {
			t.Errorf("PageSize = %d, want %d", q.PageSize, MaxPageSize)
		}
		if q.Offset() != 2*MaxPageSize {
			t.Errorf("Offset() = %d, want %d", q.Offset(), 2*MaxPageSize)
		}
	})

	t.Run("tags become unique keys", func(t *testing.T) {
		q, err := BookmarkQuery{Tags: []string{"Go", " go ", "", "SQL"}, Order: "ASC"}.normalize()
		if err != nil {
			t.Fatalf("normalize() error = %v", err)
		}
		if !reflect.DeepEqual(q.Tags, []string{"go", "sql"}) {
			t.Errorf("Tags = %v, want [go sql]", q.Tags)
		}
		if q.Order != SortAsc {
			t.Errorf("Order = %q, want asc", q.Order)
		}
	})

	t.Run("unknown sort and order", func(t *testing.T) {
		_, err := BookmarkQuery{Sort: "popularity", Order: "sideways"}.normalize()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("normalize() error = %v, want *ValidationError", err)
		}
		if len(ve.Violations) != 2 {
			t.Errorf("violations = %v, want sort and order", ve.Violations)
		}
	})
}

func TestBookmarkQuery_Offset(t *testing.T) {
	tests := []struct {
		page, size, want int
	}{
		{1, 20, 0},
		{0, 20, 0},
		{3, 20, 40},
		{100, 20, 1980},
		{math.MaxInt / 2, 20, math.MaxInt},
		{math.MaxInt, 1, math.MaxInt - 1},
		{5, 0, 0},
	}
	for _, tt := range tests {
		q := BookmarkQuery{Page: tt.page, PageSize: tt.size}
		if got := q.Offset(); got != tt.want {
			t.Errorf("Offset(page=%d, size=%d) = %d, want %d", tt.page, tt.size, got, tt.want)
		}
	}
}

func TestPlannerStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to PlannerStatus
		want     bool
	}{
		{PlannerScheduled, PlannerCompleted, true},
		{PlannerScheduled, PlannerCancelled, true},
		{PlannerScheduled, PlannerRescheduled, true},
		{PlannerRescheduled, PlannerRescheduled, true},
		{PlannerRescheduled, PlannerCompleted, true},
		{PlannerScheduled, PlannerScheduled, false},
		{PlannerCompleted, PlannerRescheduled, false},
		{PlannerCancelled, PlannerCompleted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ValidationError{}, CodeValidation},
		{&DuplicateError{Resource: "bookmark", Field: "url"}, CodeDuplicate},
		{notFound("bookmark", "b1"), CodeNotFound},
		{&MissingParameterError{Action: BulkMoveFolder, Param: ParamFolderID}, CodeMissingParameter},
		{errors.Join(errors.New("query"), ErrTimeout), CodeTimeout},
		{errors.New("disk on fire"), CodeInternal},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSatelliteKind_Vocabulary(t *testing.T) {
	if got := KindAssignment.InitialStatus(); got != "not_started" {
		t.Errorf("InitialStatus() = %q, want not_started", got)
	}
	if !KindSkillDevelopment.AllowsPersona(PersonaProfessional) {
		t.Error("skill_development should be available to professional")
	}
	if KindSkillDevelopment.AllowsPersona(PersonaStudent) {
		t.Error("skill_development should not be available to student")
	}
	for kind := range kindRules {
		if len(kind.Statuses()) == 0 {
			t.Errorf("%s has no statuses", kind)
		}
	}
}
