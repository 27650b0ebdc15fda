package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassDetail_Valid(t *testing.T) {
	tests := []struct {
		name   string
		detail ClassDetail
		want   bool
	}{
		{name: "complete", detail: ClassDetail{Date: "03-14-2026 | 09:00 am", Location: "1 Main St, Nashville"}, want: true},
		{name: "missing date", detail: ClassDetail{Location: "1 Main St"}, want: false},
		{name: "missing location", detail: ClassDetail{Date: "03-14-2026 | 09:00 am"}, want: false},
		{name: "blank fields", detail: ClassDetail{Date: "  ", Location: " "}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.detail.Valid())
		})
	}
}

func TestValidStudents(t *testing.T) {
	roster := []StudentContact{
		{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "555"},
		{Name: "", Email: "ghost@example.com"},
		{Name: "No Mail"},
		{Name: "Alan Turing", Email: "alan@example.com"},
	}

	got := ValidStudents(roster)

	assert.Equal(t, []StudentContact{roster[0], roster[3]}, got)
	assert.Empty(t, ValidStudents(nil))
}
