package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRisk_IsValid(t *testing.T) {
	for _, r := range []Risk{RiskLow, RiskMedium, RiskHigh, RiskUnknown} {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, Risk("EXTREME").IsValid())
	assert.False(t, Risk("low").IsValid())
	assert.False(t, Risk("").IsValid())
}

func TestClassificationResult_MarshalJSON(t *testing.T) {
	t.Run("nil actions become empty array", func(t *testing.T) {
		data, err := json.Marshal(ClassificationResult{Risk: RiskUnknown, Message: "failed"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"risk":"UNKNOWN","message":"failed","actions":[]}`, string(data))
	})

	t.Run("diagnostic fields", func(t *testing.T) {
		data, err := json.Marshal(&ClassificationResult{
			Risk:    RiskMedium,
			Message: "not json",
			Actions: []string{"monitor sensors"},
			Raw:     "hello",
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"risk":"MEDIUM","message":"not json","actions":["monitor sensors"],"raw":"hello"}`, string(data))
	})

	t.Run("passthrough is relayed unchanged", func(t *testing.T) {
		object := json.RawMessage(`{"risk":"HIGH","message":"Ice likely","actions":["slow down"],"confidence":0.9}`)
		result := NewPassthroughResult(object)

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Equal(t, string(object), string(data))

		assert.True(t, result.IsPassthrough())
		assert.Equal(t, RiskHigh, result.Risk)
		assert.Equal(t, "Ice likely", result.Message)
		assert.Equal(t, []string{"slow down"}, result.Actions)
	})

	t.Run("passthrough keeps duplicate keys verbatim", func(t *testing.T) {
		object := json.RawMessage(`{"risk":"LOW","risk":"HIGH","message":"m","actions":[]}`)
		result := NewPassthroughResult(object)

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Equal(t, string(object), string(data))
		// the typed view follows the last occurrence
		assert.Equal(t, RiskHigh, result.Risk)
	})

	t.Run("passthrough with odd field types", func(t *testing.T) {
		object := json.RawMessage(`{"risk":3,"message":"ok","actions":"none"}`)
		result := NewPassthroughResult(object)

		assert.Equal(t, Risk(""), result.Risk)
		assert.Equal(t, "ok", result.Message)
		assert.Nil(t, result.Actions)

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.JSONEq(t, string(object), string(data))
	})
}
