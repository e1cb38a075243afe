package products

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "One Piece", want: "one-piece"},
		{name: "diacritics stripped", in: "Tomodachi Gemu é Ñoño", want: "tomodachi-gemu-e-nono"},
		{name: "punctuation collapsed", in: "Berserk: Deluxe!! Edition", want: "berserk-deluxe-edition"},
		{name: "leading and trailing junk", in: "  --Vagabond-- ", want: "vagabond"},
		{name: "numbers kept", in: "20th Century Boys Vol. 3", want: "20th-century-boys-vol-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
