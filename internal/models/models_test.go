package models

import "testing"

func TestOverlayKeepsLocalFields(t *testing.T) {
	local := Issue{ID: "5", Title: "Fix bug", Priority: PriorityHigh, DueDate: "2025-03-01", ProjectID: "p1"}

	tests := []struct {
		name string
		echo IssueEcho
		want Issue
	}{
		{
			name: "only done returned",
			echo: IssueEcho{Issue: Issue{ID: "5", Done: true, Priority: PriorityMedium}, Fields: FieldDone},
			want: Issue{ID: "5", Title: "Fix bug", Priority: PriorityHigh, DueDate: "2025-03-01", Done: true, ProjectID: "p1"},
		},
		{
			name: "empty project id ignored",
			echo: IssueEcho{Issue: Issue{ID: "5", Done: true}, Fields: FieldDone | FieldProjectID},
			want: Issue{ID: "5", Title: "Fix bug", Priority: PriorityHigh, DueDate: "2025-03-01", Done: true, ProjectID: "p1"},
		},
		{
			name: "server fields win",
			echo: IssueEcho{
				Issue:  Issue{ID: "5", Title: "Fixed bug", Priority: PriorityLow, DueDate: "", ProjectID: "p2"},
				Fields: FieldTitle | FieldPriority | FieldDueDate | FieldDone | FieldProjectID,
			},
			want: Issue{ID: "5", Title: "Fixed bug", Priority: PriorityLow, DueDate: "", ProjectID: "p2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := local.Overlay(tt.echo)
			if got != tt.want {
				t.Fatalf("Overlay() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatDueDate(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"2025-12-31":           "31.12.2025",
		"2025-01-02T10:00:00Z": "02.01.2025",
		"next week":            "next week",
	}
	for in, want := range tests {
		if got := FormatDueDate(in); got != want {
			t.Fatalf("FormatDueDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPriorityLabel(t *testing.T) {
	if PriorityHigh.Label() != "Hoch" || PriorityNone.Label() != "-" || Priority("9").Label() != "-" {
		t.Fatalf("unexpected labels: %q %q", PriorityHigh.Label(), PriorityNone.Label())
	}
}
