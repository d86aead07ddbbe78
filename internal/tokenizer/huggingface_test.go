package tokenizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTokenizerJSON(t *testing.T, config map[string]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	data, err := json.Marshal(config)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestInspectHF(t *testing.T) {
	path := writeTokenizerJSON(t, map[string]interface{}{
		"model": map[string]interface{}{
			"type":  "BPE",
			"vocab": map[string]int{"a": 0, "b": 1, "ab": 2},
		},
		"added_tokens": []map[string]interface{}{
			{"id": 3, "content": "<s>", "special": true},
			{"id": 4, "content": "</s>", "special": true},
			{"id": 5, "content": "hello", "special": false},
		},
	})

	meta, err := InspectHF(path)
	require.NoError(t, err)
	assert.Equal(t, HFTypeBPE, meta.Type)
	assert.Equal(t, 3, meta.VocabSize)
	assert.Equal(t, []string{"<s>", "</s>"}, meta.SpecialTokens)
}

func TestInspectHF_Unigram(t *testing.T) {
	path := writeTokenizerJSON(t, map[string]interface{}{
		"model": map[string]interface{}{
			"type":  "Unigram",
			"vocab": [][]interface{}{{"<unk>", 0.0}, {"a", -1.5}},
		},
	})

	meta, err := InspectHF(path)
	require.NoError(t, err)
	assert.Equal(t, HFTypeUnigram, meta.Type)
	assert.Equal(t, 2, meta.VocabSize)
	assert.Empty(t, meta.SpecialTokens)
}

func TestInspectHF_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := InspectHF(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokenizer.json")
		require.NoError(t, os.WriteFile(path, []byte("invalid json"), 0o600))
		_, err := InspectHF(path)
		assert.Error(t, err)
	})

	t.Run("unsupported model", func(t *testing.T) {
		path := writeTokenizerJSON(t, map[string]interface{}{
			"model": map[string]interface{}{"type": "SentencePieceBPE"},
		})
		_, err := InspectHF(path)
		assert.ErrorContains(t, err, "unsupported")
	})
}

func TestLoad_Directory(t *testing.T) {
	path := writeTokenizerJSON(t, map[string]interface{}{
		"model": map[string]interface{}{"type": "Mystery"},
	})

	_, err := Load(filepath.Dir(path))
	assert.ErrorContains(t, err, "unsupported")
}
