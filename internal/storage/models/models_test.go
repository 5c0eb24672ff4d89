package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestToJSON(t *testing.T) {
	data, err := ToJSON([]RunArtifact{{Format: "md", ContentType: "text/markdown", Size: 12}})
	require.NoError(t, err)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "md", got[0]["format"])
	assert.NotContains(t, got[0], "location")

	_, err = ToJSON(make(chan int))
	assert.Error(t, err)
}

func TestTailorRunTableName(t *testing.T) {
	assert.Equal(t, "tailor_runs", TailorRun{}.TableName())
}
