package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Version
		wantErr bool
	}{
		{name: "simple", input: "1.2.3", want: New(1, 2, 3)},
		{name: "zero", input: "0.0.0", want: Zero},
		{name: "large components", input: "10.200.3000", want: New(10, 200, 3000)},
		{name: "missing component", input: "1.2", wantErr: true},
		{name: "too many components", input: "1.2.3.4", wantErr: true},
		{name: "non numeric", input: "a.b.c", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "1.1.0", New(1, 1, 0).String())
	assert.Equal(t, "0.0.0", Zero.String())
}

func TestVersionRoundTrip(t *testing.T) {
	v := New(4, 5, 6)
	text, err := v.MarshalText()
	require.NoError(t, err)

	var got Version
	require.NoError(t, got.UnmarshalText(text))
	assert.True(t, v.Equal(got))
}

func TestVersionCompare(t *testing.T) {
	assert.True(t, New(1, 0, 0).LessThan(New(1, 0, 1)))
	assert.True(t, New(1, 0, 0).LessThan(New(1, 1, 0)))
	assert.True(t, New(1, 0, 0).LessThan(New(2, 0, 0)))
	assert.False(t, New(2, 0, 0).LessThan(New(1, 9, 9)))
	assert.True(t, New(1, 2, 3).Equal(New(1, 2, 3)))
}

func TestMax(t *testing.T) {
	assert.Equal(t, Zero, Max(nil))
	assert.Equal(t, New(1, 1, 0), Max([]Version{New(0, 2, 0), New(1, 1, 0), New(0, 9, 9)}))
}
