package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveMediaOnDisk(t *testing.T) {
	db := newTestDB(t)
	store := DiskStore{Base: t.TempDir()}
	ctx := context.Background()

	media, err := SaveMedia(ctx, db, store, UploadInput{
		Filename:   "Hero Image.PNG",
		AltText:    "A hero",
		UploadedBy: "user-1",
		Data:       pngBytes(t, 4, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hero Image.PNG", media.OriginalFilename)
	assert.True(t, strings.HasPrefix(media.Filename, media.UUID+"-hero-image"))
	assert.True(t, strings.HasSuffix(media.Filename, ".png"))
	assert.Equal(t, "image/png", media.MimeType)
	require.NotNil(t, media.Width)
	require.NotNil(t, media.Height)
	assert.Equal(t, 4, *media.Width)
	assert.Equal(t, 3, *media.Height)
	assert.Equal(t, ContentURL(media.UUID), media.CDNURL)
	assert.Len(t, media.Sha256, 64)
	_, err = os.Stat(media.StoragePath)
	require.NoError(t, err)

	got, body, err := OpenMedia(ctx, db, store, media.UUID)
	require.NoError(t, err)
	defer body.Close()
	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, media.FileSize, int64(len(content)))
	assert.Equal(t, "A hero", got.AltText)

	list, err := ListMedia(db, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = DeleteMedia(ctx, db, store, media.UUID)
	require.NoError(t, err)
	_, err = os.Stat(media.StoragePath)
	assert.True(t, os.IsNotExist(err))
	_, err = GetMedia(db, media.UUID)
	assertStatus(t, err, http.StatusNotFound)
}

func TestSaveMediaRejectsEmpty(t *testing.T) {
	db := newTestDB(t)
	_, err := SaveMedia(context.Background(), db, DiskStore{Base: t.TempDir()}, UploadInput{Filename: "a.txt"})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestSaveMediaNonImage(t *testing.T) {
	db := newTestDB(t)
	media, err := SaveMedia(context.Background(), db, DiskStore{Base: t.TempDir(), CDNPrefix: "https://cdn.test"}, UploadInput{
		Filename:    "notes.txt",
		ContentType: "application/octet-stream",
		Data:        []byte("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", media.MimeType)
	assert.Nil(t, media.Width)
	assert.Equal(t, "https://cdn.test/"+media.Filename, media.CDNURL)
}

func TestS3StoreAgainstFakeEndpoint(t *testing.T) {
	var mu sync.Mutex
	objects := map[string][]byte{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			objects[r.URL.Path] = body
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			body, ok := objects[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
				return
			}
			_, _ = w.Write(body)
		case http.MethodDelete:
			delete(objects, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	store, err := NewS3Store(S3Config{
		Bucket:          "media",
		Region:          "us-east-1",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Endpoint:        srv.URL,
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.txt", "text/plain", []byte("hello")))
	mu.Lock()
	assert.Equal(t, []byte("hello"), objects["/media/a.txt"])
	mu.Unlock()

	body, err := store.Open(ctx, "a.txt")
	require.NoError(t, err)
	content, _ := io.ReadAll(body)
	_ = body.Close()
	assert.Equal(t, "hello", string(content))

	require.NoError(t, store.Delete(ctx, "a.txt"))
	_, err = store.Open(ctx, "a.txt")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	assert.Equal(t, "s3://media/a.txt", store.Path("a.txt"))
	assert.Equal(t, "https://media.s3.us-east-1.amazonaws.com/a.txt", store.PublicURL("a.txt"))
}

func TestNewS3StoreNeedsBucket(t *testing.T) {
	_, err := NewS3Store(S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
