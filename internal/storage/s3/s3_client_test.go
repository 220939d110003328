package s3_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalyzer/internal/config"
	"legalyzer/internal/domain"
	"legalyzer/internal/port"
	s3storage "legalyzer/internal/storage/s3"
)

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>exports/gone.pdf</Key></Error>`

const accessDeniedBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`

func newFakeS3(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func storageFor(t *testing.T, srv *httptest.Server) port.ObjectStorage {
	t.Helper()
	st, err := s3storage.NewS3Client(context.Background(), &config.S3Config{
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return st
}

func TestS3Client_Download(t *testing.T) {
	srv := newFakeS3(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/legalyzer/exports/report.pdf", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 report"))
	})

	data, err := storageFor(t, srv).Download(context.Background(), "legalyzer", "exports/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 report", string(data))
}

func TestS3Client_DownloadMissingKey(t *testing.T) {
	srv := newFakeS3(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(noSuchKeyBody))
	})

	_, err := storageFor(t, srv).Download(context.Background(), "legalyzer", "exports/gone.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestS3Client_DownloadOtherErrorsKeepDetail(t *testing.T) {
	srv := newFakeS3(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(accessDeniedBody))
	})

	_, err := storageFor(t, srv).Download(context.Background(), "legalyzer", "exports/secret.pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "AccessDenied")
}
