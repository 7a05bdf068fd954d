package tasks

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

func TestReorder(t *testing.T) {
	tasks := []models.DailyTask{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	tests := []struct {
		name     string
		id       string
		position int
		want     []string
		wantErr  error
	}{
		{name: "to front", id: "c", position: 1, want: []string{"c", "a", "b", "d"}},
		{name: "to back", id: "a", position: 4, want: []string{"b", "c", "d", "a"}},
		{name: "same place", id: "b", position: 2, want: []string{"a", "b", "c", "d"}},
		{name: "middle", id: "d", position: 2, want: []string{"a", "d", "b", "c"}},
		{name: "position zero", id: "a", position: 0, wantErr: apperrors.ErrInvalid},
		{name: "past end", id: "a", position: 5, wantErr: apperrors.ErrInvalid},
		{name: "unknown task", id: "z", position: 1, wantErr: apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reorder(tasks, tt.id, tt.position)
			if tt.wantErr != nil {
				if !apperrors.Is(err, tt.wantErr) {
					t.Fatalf("reorder error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("reorder failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("reorder mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
