package metamodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnake(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Employee", "employee"},
		{"deptName", "dept_name"},
		{"PhoneType", "phone_type"},
		{"HTTPServer", "http_server"},
		{"userID", "user_id"},
		{"already_snake", "already_snake"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Snake(tt.in))
		})
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "Employees", Plural("Employee"))
	assert.Equal(t, "Categories", Plural("Category"))
	assert.Equal(t, "people", Plural("person"))
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("name"))
	assert.True(t, ValidName("_x1"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("1x"))
	assert.False(t, ValidName("a.b"))
}
