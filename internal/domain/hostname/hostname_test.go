package hostname

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"word pair with suffix", "brave-otter-a1b2c3", false},
		{"single label", "node1", false},
		{"empty", "", true},
		{"dot", "brave.otter", true},
		{"uppercase", "Brave-otter", true},
		{"leading hyphen", "-otter", true},
		{"trailing hyphen", "otter-", true},
		{"leading digit", "1otter", true},
		{"underscore", "brave_otter", true},
		{"too long", strings.Repeat("a", MaxLength+1), true},
		{"label over 63", strings.Repeat("a", 64), true},
		{"max label length", strings.Repeat("a", 63), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidHostname)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_NamesFailedRule(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "required"},
		{"brave.otter", "excludes"},
		{strings.Repeat("a", MaxLength+1), "max"},
		{"otter-", "dns_rfc1035_label"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.ErrorContains(t, Validate(tt.input), "fails "+tt.want)
		})
	}
}

func TestNewReservation(t *testing.T) {
	now := time.Now().UTC()

	r, err := NewReservation("calm-heron-zz9911", 4, now)
	assert.NoError(t, err)
	assert.Equal(t, "calm-heron-zz9911", r.Hostname())
	assert.Equal(t, uint(4), r.SubscriptionItemID())

	_, err = NewReservation("calm-heron", 0, now)
	assert.Error(t, err)
}
