package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_StringAndParse(t *testing.T) {
	conf := NewIDKey(KindConference, 12, nil)
	tests := []struct {
		name string
		key  *Key
		want string
	}{
		{"root id", conf, "Conference:i:12"},
		{"child", NewIDKey(KindSession, 40, conf), "Conference:i:12/Session:i:40"},
		{"escaped name", ProfileKey("a/b c"), "Profile:n:a%2Fb%20c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.String())
			got, err := ParseKeyPath(tt.want)
			require.NoError(t, err)
			assert.True(t, tt.key.Equal(got))
		})
	}
}

func TestParseKeyPath_Malformed(t *testing.T) {
	for _, path := range []string{"", "Conference", "Conference:i:x", "Conference:i:0", "Conference:z:1", ":i:1", "Profile:n:"} {
		t.Run(path, func(t *testing.T) {
			_, err := ParseKeyPath(path)
			require.ErrorIs(t, err, ErrMalformedKey)
		})
	}
}

func TestKey_Equal(t *testing.T) {
	a := NewIDKey(KindSession, 1, NewIDKey(KindConference, 1, nil))
	b := NewIDKey(KindSession, 1, NewIDKey(KindConference, 2, nil))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(NewIDKey(KindSession, 1, NewIDKey(KindConference, 1, nil))))
	var nilKey *Key
	assert.True(t, nilKey.Equal(nil))
	assert.False(t, a.Equal(nil))
	assert.Equal(t, 1, IndexOfKey([]*Key{b, a}, a))
	assert.False(t, ContainsKey([]*Key{b}, a))
}
