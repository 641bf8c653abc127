package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deskhq/desk-backend/internal/category"
)

func TestProject_Validate(t *testing.T) {
	base := Project{Title: "Website redesign", Category: category.Design, Progress: 40, Tasks: TaskCounts{Total: 5, Completed: 2}}

	tests := []struct {
		name   string
		mutate func(*Project)
		want   error
	}{
		{"valid", func(*Project) {}, nil},
		{"progress at bounds", func(p *Project) { p.Progress = 100 }, nil},
		{"negative progress", func(p *Project) { p.Progress = -1 }, ErrInvalidProgress},
		{"progress above 100", func(p *Project) { p.Progress = 101 }, ErrInvalidProgress},
		{"completed above total", func(p *Project) { p.Tasks = TaskCounts{Total: 1, Completed: 2} }, ErrInvalidCounts},
		{"negative total", func(p *Project) { p.Tasks = TaskCounts{Total: -1} }, ErrInvalidCounts},
		{"unknown category", func(p *Project) { p.Category = "hobby" }, category.ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			err := p.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProject_Active(t *testing.T) {
	assert.True(t, Project{Progress: 99}.Active())
	assert.False(t, Project{Progress: 100}.Active())
}

func TestProjectTask_HasNoCategory(t *testing.T) {
	assert.Equal(t, category.Category(""), ProjectTask{Title: "Wireframes"}.RecordCategory())
}
