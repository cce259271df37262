package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with table",
			err:  NewTable(CodeStructural, "dataset.Load", "customers", errors.New("boom")),
			want: "STRUCTURAL: dataset.Load: table customers: boom",
		},
		{
			name: "without table",
			err:  New(CodeConfig, "config.Load", errors.New("bad port")),
			want: "CONFIG: config.Load: bad port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestMissingColumn(t *testing.T) {
	err := MissingColumn("sales", "customer_id")

	require.Error(t, err)
	assert.True(t, IsStructural(err))
	assert.Equal(t, "sales", err.Table)
	assert.Contains(t, err.Error(), `required column "customer_id"`)
}

func TestIsStructural_Wrapped(t *testing.T) {
	inner := UnreadableFile("products", "raw/products.csv", errors.New("permission denied"))
	wrapped := fmt.Errorf("load step: %w", inner)

	assert.True(t, IsStructural(wrapped))
	assert.Equal(t, CodeStructural, CodeOf(wrapped))
}

func TestCodeOf_Unclassified(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestHasCode(t *testing.T) {
	err := New(CodeRuleSet, "rules.Load", errors.New("unknown kind"))

	assert.True(t, HasCode(err, CodeRuleSet))
	assert.False(t, HasCode(err, CodeStructural))
}

func TestAPIErrorFrom(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "config error maps to 422",
			err:        New(CodeConfig, "config.Load", errors.New("bad")),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "structural error maps to 500",
			err:        MissingColumn("sales", "id"),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "plain error maps to 500",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := APIErrorFrom(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
		})
	}
}
