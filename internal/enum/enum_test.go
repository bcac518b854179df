package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cipher int

const (
	cipherNotSet cipher = iota
	cipherGCM
	cipherCBC
	cipherCTR
)

var cipherMapper = NewMapper(
	Entry[cipher]{cipherGCM, "GCM"},
	Entry[cipher]{cipherCBC, "CBC"},
	Entry[cipher]{cipherCTR, "CTR"},
)

func TestMapper_RoundTripEveryKnownValue(t *testing.T) {
	for _, v := range cipherMapper.Values() {
		assert.Equal(t, v, cipherMapper.Value(cipherMapper.Name(v)), "value %d", v)
	}
	assert.Equal(t, 3, cipherMapper.Len())
}

func TestMapper_UnknownMapsToNotSet(t *testing.T) {
	assert.Equal(t, cipherGCM, cipherMapper.Value("GCM"))
	assert.Equal(t, cipherNotSet, cipherMapper.Value("UNKNOWN_FUTURE_VALUE"))
	assert.Equal(t, cipherNotSet, cipherMapper.Value("gcm"), "lookup is case-sensitive")
	assert.Equal(t, cipherNotSet, cipherMapper.Value(""))
	assert.Equal(t, "", cipherMapper.Name(cipherNotSet))
	assert.Equal(t, "", cipherMapper.Name(cipher(42)))
	assert.False(t, cipherMapper.Known(cipherNotSet))
	assert.True(t, cipherMapper.Known(cipherCTR))
}

func TestMapper_DeclarationOrder(t *testing.T) {
	assert.Equal(t, []string{"GCM", "CBC", "CTR"}, cipherMapper.Names())
	assert.Equal(t, []cipher{cipherGCM, cipherCBC, cipherCTR}, cipherMapper.Values())
}

func TestMapper_Text(t *testing.T) {
	b, err := cipherMapper.MarshalText(cipherCBC)
	require.NoError(t, err)
	assert.Equal(t, "CBC", string(b))

	var c cipher
	require.NoError(t, cipherMapper.UnmarshalText([]byte("NOPE"), &c))
	assert.Equal(t, cipherNotSet, c)
}

func TestNewMapper_RejectsBadTables(t *testing.T) {
	assert.Panics(t, func() { NewMapper(Entry[cipher]{cipherGCM, ""}) })
	assert.Panics(t, func() { NewMapper(Entry[cipher]{cipherNotSet, "X"}) })
	assert.Panics(t, func() {
		NewMapper(Entry[cipher]{cipherGCM, "A"}, Entry[cipher]{cipherCBC, "A"})
	})
	assert.Panics(t, func() {
		NewMapper(Entry[cipher]{cipherGCM, "A"}, Entry[cipher]{cipherGCM, "B"})
	})
}

func TestRegister(t *testing.T) {
	Register("test.Cipher", cipherMapper)
	var found bool
	for _, tbl := range Registered() {
		if tbl.Type == "test.Cipher" {
			found = true
			assert.Equal(t, []string{"GCM", "CBC", "CTR"}, tbl.Names)
		}
	}
	assert.True(t, found)
}
