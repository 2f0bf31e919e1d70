package serialization_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/rlsgen/pkg/batch/support/util/serialization"
)

type generation struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"`
}

type root struct {
	Generation generation             `yaml:"generation"`
	Database   map[string]interface{} `yaml:"database"`
}

func TestMarshalMasked_HidesSecretsAtAnyDepth(t *testing.T) {
	in := root{
		Generation: generation{Model: "claude", APIKey: "sk-live"},
		Database: map[string]interface{}{
			"catalog": map[string]interface{}{"host": "db", "password": "hunter2"},
		},
	}

	out, err := serialization.MarshalMasked(in)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "sk-live")
	assert.NotContains(t, string(out), "hunter2")

	var back map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "claude", back["generation"].(map[string]interface{})["model"])
	assert.Equal(t, serialization.Mask, back["generation"].(map[string]interface{})["api_key"])
	catalog := back["database"].(map[string]interface{})["catalog"].(map[string]interface{})
	assert.Equal(t, "db", catalog["host"])
	assert.Equal(t, serialization.Mask, catalog["password"])
}

func TestMarshalMasked_EmptySecretStaysEmpty(t *testing.T) {
	out, err := serialization.MarshalMasked(root{Generation: generation{Model: "m"}})
	require.NoError(t, err)
	assert.NotContains(t, string(out), serialization.Mask)
}

func TestMarshalMasked_CustomKeys(t *testing.T) {
	out, err := serialization.MarshalMasked(map[string]string{"token": "abc", "password": "visible"}, "TOKEN")
	require.NoError(t, err)
	assert.NotContains(t, string(out), "abc")
	assert.Contains(t, string(out), "visible")
}
