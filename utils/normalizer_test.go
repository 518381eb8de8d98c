package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sí", "si"},
		{"  VÓMITO!!  ", "vomito"},
		{"¿Tiene   fiebre?", "tiene fiebre"},
		{"mañana, 3 veces", "manana 3 veces"},
		{"pelud@ con\tdiarrea\n", "pelud con diarrea"},
		{"Ñandú", "nandu"},
		{"", ""},
		{"¡¿...?!", ""},
		{"🐶 tose", "tose"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"Está MUY decaído", "no   sé", "Ictericia (amarillo)", "çà et là"} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), in)
	}
}

func TestTokens(t *testing.T) {
	assert.Nil(t, Tokens(""))
	assert.Equal(t, []string{"no", "come"}, Tokens(Normalize("No  come.")))
}
