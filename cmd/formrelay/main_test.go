package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contact.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"contact","name":"A","email":"a@b.com","phone":"1","message":"hi"}`), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"render", path})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "Subject: Contact Form Submission from A\n\nName: A\nEmail: a@b.com\nPhone: 1\nMessage: hi\n", out.String())
}

func TestRenderCommand_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"survey"}`), 0o600))

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"render", path})
	assert.Error(t, rootCmd.Execute())
}
