package contracts

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTxID_RoundTrip(t *testing.T) {
	var id TxID
	for i := range id {
		id[i] = byte(i)
	}

	parsed, err := ParseTxID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseTxID_Rejects(t *testing.T) {
	_, err := ParseTxID("zz")
	assert.Error(t, err)

	_, err = ParseTxID(strings.Repeat("ab", 16)) // 16 bytes, too short
	assert.Error(t, err)
}

func TestTxID_JSONHex(t *testing.T) {
	var id TxID
	id[0] = 0xde
	id[31] = 0xad

	raw, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.Hex()+`"`, string(raw))

	var back TxID
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, id, back)
}
