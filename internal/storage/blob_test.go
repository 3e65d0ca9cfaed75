package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFolders = NewFolders(config.BlobFolders{
	ApprovedQuestion:   "Approved Question",
	ApprovedSolution:   "Approved Solution",
	ApprovedDetailed:   "Approved Detailed",
	UnapprovedQuestion: "Unapproved Question",
	UnapprovedSolution: "Unapproved Solution",
	UnapprovedDetailed: "Unapproved Detailed",
})

func TestFolderMatrix(t *testing.T) {
	cases := []struct {
		role model.Role
		typ  model.ImageType
		want string
	}{
		{model.RoleStudent, model.ImageQuestion, "Unapproved Question"},
		{model.RoleStudent, model.ImageSolution, "Unapproved Solution"},
		{model.RoleStudent, model.ImageDetailed, "Unapproved Detailed"},
		{model.RoleTeacher, model.ImageQuestion, "Approved Question"},
		{model.RoleTeacher, model.ImageSolution, "Approved Solution"},
		{model.RoleTeacher, model.ImageDetailed, "Approved Detailed"},
		{model.RoleAdmin, model.ImageQuestion, "Approved Question"},
		{model.RoleAdmin, model.ImageSolution, "Approved Solution"},
		{model.RoleAdmin, model.ImageDetailed, "Approved Detailed"},
	}
	for _, tc := range cases {
		t.Run(string(tc.role)+"/"+string(tc.typ), func(t *testing.T) {
			got, err := testFolders.For(tc.role, tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFolderRejectsUnknownType(t *testing.T) {
	_, err := testFolders.For(model.RoleAdmin, model.ImageType("avatar"))
	assert.ErrorIs(t, err, ErrInvalidImageType)
}

func TestKeyFromURL(t *testing.T) {
	base := "https://bucket.oss.example"
	cases := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{base + "/approved/question/a.png", "approved/question/a.png", true},
		{base + "/Approved%20Solution/b.png?x=1", "Approved Solution/b.png", true},
		{base + "/", "", false},
		{base + "/../etc/passwd", "", false},
		{"https://other.example/a.png", "", false},
		{base + "/bad%zzescape.png", "", false},
	}
	for _, tc := range cases {
		id, ok := keyFromURL(base, tc.url)
		assert.Equal(t, tc.wantOK, ok, tc.url)
		assert.Equal(t, tc.wantID, id, tc.url)
	}
}

func TestLocalUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir, "http://localhost:8080/")
	ctx := context.Background()

	obj, err := s.Upload(ctx, "Approved Question", "x.png", "image/png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)
	assert.Equal(t, "Approved Question/x.png", obj.ID)
	assert.Equal(t, "http://localhost:8080/uploads/Approved%20Question/x.png", obj.URL)
	assert.True(t, s.Hosts(obj.URL))

	id, ok := s.IDFromURL(obj.URL)
	require.True(t, ok)
	assert.Equal(t, obj.ID, id)

	data, err := os.ReadFile(filepath.Join(dir, "Approved Question", "x.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, s.Delete(ctx, obj.ID))
	_, err = os.Stat(filepath.Join(dir, "Approved Question", "x.png"))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is not an error.
	assert.NoError(t, s.Delete(ctx, obj.ID))
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	s := NewLocal(t.TempDir(), "http://localhost")
	assert.Error(t, s.Delete(context.Background(), "../outside.png"))
}

type fakeBucket struct {
	puts    map[string][]byte
	deleted []string
	putErr  error
}

func (b *fakeBucket) PutObject(key string, r io.Reader, _ ...oss.Option) error {
	if b.putErr != nil {
		return b.putErr
	}
	data, _ := io.ReadAll(r)
	if b.puts == nil {
		b.puts = map[string][]byte{}
	}
	b.puts[key] = data
	return nil
}

func (b *fakeBucket) DeleteObject(key string, _ ...oss.Option) error {
	b.deleted = append(b.deleted, key)
	return nil
}

func TestOSSUploadURLAndID(t *testing.T) {
	bucket := &fakeBucket{}
	s := newOSS(bucket, "https://oss-cn-beijing.aliyuncs.com/", "physical")
	ctx := context.Background()

	obj, err := s.Upload(ctx, "approved/solution", "s.jpg", "image/jpeg", bytes.NewReader([]byte("jpg")))
	require.NoError(t, err)
	assert.Equal(t, "https://physical.oss-cn-beijing.aliyuncs.com/approved/solution/s.jpg", obj.URL)
	assert.Equal(t, "approved/solution/s.jpg", obj.ID)
	assert.Equal(t, []byte("jpg"), bucket.puts["approved/solution/s.jpg"])

	id, ok := s.IDFromURL(obj.URL)
	require.True(t, ok)
	require.NoError(t, s.Delete(ctx, id))
	assert.Equal(t, []string{"approved/solution/s.jpg"}, bucket.deleted)

	assert.False(t, s.Hosts("https://evil.example/approved/solution/s.jpg"))
}

func TestOSSUploadFailure(t *testing.T) {
	s := newOSS(&fakeBucket{putErr: errors.New("unreachable")}, "oss.example", "b")
	_, err := s.Upload(context.Background(), "f", "n.png", "image/png", bytes.NewReader(nil))
	assert.Error(t, err)
}
