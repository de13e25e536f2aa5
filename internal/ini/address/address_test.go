package address

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Address
		wantErr bool
	}{
		{"key before section", "Difficulty:Gameplay", Address{Section: "Gameplay", Key: "Difficulty"}, false},
		{"split on first colon", "k:sec:sub", Address{Section: "sec:sub", Key: "k"}, false},
		{"spaces kept", "my key:my section", Address{Section: "my section", Key: "my key"}, false},
		{"no separator", "nocolon", Address{}, true},
		{"empty key", ":Gameplay", Address{}, true},
		{"empty section", "Difficulty:", Address{}, true},
		{"only separator", ":", Address{}, true},
		{"empty", "", Address{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalid))
				assert.False(t, got.Valid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	a, err := New("Gameplay", "Difficulty")
	require.NoError(t, err)
	assert.Equal(t, "Difficulty:Gameplay", a.SettingName())
	assert.Equal(t, "Gameplay::Difficulty", a.CacheKey())
	assert.Equal(t, "[Gameplay]Difficulty", a.String())

	_, err = New("", "Difficulty")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = New("Gameplay", "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSettingNameRoundTrip(t *testing.T) {
	a := Address{Section: "Audio", Key: "Volume"}
	got, err := Parse(a.SettingName())
	require.NoError(t, err)
	assert.Equal(t, a, got)
}
