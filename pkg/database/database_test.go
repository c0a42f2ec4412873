package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldMigrate(t *testing.T) {
	tests := []struct {
		name  string
		mode  string
		force bool
		want  bool
	}{
		{"debug migrates by default", "debug", false, true},
		{"test migrates by default", "test", false, true},
		{"release skips migration", "release", false, false},
		{"release with -migrate flag migrates", "release", true, true},
		{"debug with -migrate flag migrates", "debug", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldMigrate(tt.mode, tt.force))
		})
	}
}
