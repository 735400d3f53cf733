package nemo

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conformerConfig = `
target: nemo.collections.asr.models.ctc_bpe_models.EncDecCTCModelBPE
sample_rate: 22050
preprocessor:
  _target_: nemo.collections.asr.modules.AudioToMelSpectrogramPreprocessor
  sample_rate: 16000
`

func buildArchive(t *testing.T, files map[string]string, gz bool) string {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "./", Typeflag: tar.TypeDir, Mode: 0755}))
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(body)),
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	data := buf.Bytes()
	if gz {
		var zbuf bytes.Buffer
		zw := gzip.NewWriter(&zbuf)
		_, err := zw.Write(data)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		data = zbuf.Bytes()
	}

	path := filepath.Join(t.TempDir(), "stt_en_conformer_ctc_large.nemo")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestOpenCheckpoint_Tar(t *testing.T) {
	path := buildArchive(t, map[string]string{
		"./model_config.yaml":  conformerConfig,
		"./model_weights.ckpt": "weights",
		"./tokenizer.model":    "tok",
	}, false)

	ckpt, err := OpenCheckpoint(path)
	require.NoError(t, err)

	assert.Equal(t, path, ckpt.Path)
	assert.Equal(t, "nemo.collections.asr.models.ctc_bpe_models.EncDecCTCModelBPE", ckpt.Target)
	assert.Equal(t, 16000, ckpt.SampleRate)
	assert.Contains(t, ckpt.Config, "preprocessor")
}

func TestOpenCheckpoint_Gzip(t *testing.T) {
	path := buildArchive(t, map[string]string{
		"model_config.yaml": "target: nemo.collections.asr.models.EncDecRNNTBPEModel\nsample_rate: 8000\n",
	}, true)

	ckpt, err := OpenCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, "nemo.collections.asr.models.EncDecRNNTBPEModel", ckpt.Target)
	assert.Equal(t, 8000, ckpt.SampleRate)
}

func TestOpenCheckpoint_DefaultSampleRate(t *testing.T) {
	path := buildArchive(t, map[string]string{
		"model_config.yaml": "target: nemo.collections.asr.models.EncDecCTCModel\n",
	}, false)

	ckpt, err := OpenCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, defaultSampleRate, ckpt.SampleRate)
}

func TestOpenCheckpoint_Errors(t *testing.T) {
	_, err := OpenCheckpoint(filepath.Join(t.TempDir(), "missing.nemo"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	noConfig := buildArchive(t, map[string]string{"model_weights.ckpt": "w"}, false)
	_, err = OpenCheckpoint(noConfig)
	assert.ErrorIs(t, err, ErrNoConfig)

	noTarget := buildArchive(t, map[string]string{"model_config.yaml": "sample_rate: 16000\n"}, false)
	_, err = OpenCheckpoint(noTarget)
	assert.ErrorContains(t, err, "no target")
}
