package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDownloadSignerRoundTrip(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)

	token, expires, err := signer.Sign("job-1", "borrowings-job-1.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expires.After(time.Now()))

	jobID, name, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
	require.Equal(t, "borrowings-job-1.csv", name)
}

func TestDownloadSignerRejectsExpired(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Nanosecond)

	token, _, err := signer.Sign("job-1", "file.csv")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	_, _, err = signer.Verify(token)
	require.ErrorContains(t, err, "expired")
}

func TestDownloadSignerRejectsTampering(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	other := NewDownloadSigner("not-the-secret", time.Hour)

	token, _, err := other.Sign("job-1", "file.csv")
	require.NoError(t, err)

	_, _, err = signer.Verify(token)
	require.Error(t, err)
}
