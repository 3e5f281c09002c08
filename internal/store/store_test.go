package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/tanq16/coursekeep/internal/course"
	"github.com/tanq16/coursekeep/internal/utils"
)

func testCourse() (*course.Course, *course.Block) {
	b := &course.Block{
		ID: "week1",
		Videos: []*course.Video{
			{ID: "v1", URL: "https://x/a.mp4", FileName: "a.mp4"},
			{ID: "v2", URL: "https://x/b.mp4", FileName: "b.mp4"},
			{ID: "v3", URL: "https://x/c.mp4", FileName: "c.mp4"},
		},
	}
	return &course.Course{ID: "course-1", Sections: []*course.Block{b}}, b
}

func writeFile(t *testing.T, p string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLocal_DeleteVideos(t *testing.T) {
	root := t.TempDir()
	c, b := testCourse()
	writeFile(t, b.Videos[0].OutputPath(root, c, b))
	writeFile(t, utils.PartPath(b.Videos[1].OutputPath(root, c, b)))

	local := &Local{Root: root}
	ids, err := local.DeleteVideos(context.Background(), c, b, b.Videos)
	if err != nil {
		t.Fatalf("DeleteVideos() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "v1" || ids[1] != "v2" {
		t.Errorf("DeleteVideos() = %v, expected [v1 v2]", ids)
	}
	if _, err := os.Stat(b.Videos[0].OutputPath(root, c, b)); !os.IsNotExist(err) {
		t.Error("Expected final file to be removed")
	}
	if _, err := os.Stat(filepath.Join(course.BlockDir(root, c, b), utils.TempDirName)); !os.IsNotExist(err) {
		t.Error("Expected empty temp directory to be removed")
	}
}

type fakeS3 struct {
	inputs []*s3.DeleteObjectsInput
	fail   string
	err    error
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	out := &s3.DeleteObjectsOutput{}
	for _, obj := range in.Delete.Objects {
		if aws.ToString(obj.Key) == f.fail {
			out.Errors = append(out.Errors, types.Error{Key: obj.Key, Message: aws.String("AccessDenied")})
		}
	}
	return out, nil
}

func TestS3Mirror_DeleteVideos(t *testing.T) {
	c, b := testCourse()
	fake := &fakeS3{}
	mirror := &S3Mirror{Client: fake, Bucket: "media", Prefix: "mirror"}
	fake.fail = mirror.Key(c, b, b.Videos[2])

	ids, err := mirror.DeleteVideos(context.Background(), c, b, b.Videos)
	if err != nil {
		t.Fatalf("DeleteVideos() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("DeleteVideos() = %v, expected 2 ids", ids)
	}
	if len(fake.inputs) != 1 || aws.ToString(fake.inputs[0].Bucket) != "media" {
		t.Errorf("Unexpected DeleteObjects calls: %d", len(fake.inputs))
	}
	if key := mirror.Key(c, b, b.Videos[0]); key != "mirror/course-1/week1/a.mp4" {
		t.Errorf("Key() = %s, expected mirror/course-1/week1/a.mp4", key)
	}
}

type stubDeleter struct {
	ids []string
	err error
}

func (s stubDeleter) DeleteVideos(context.Context, *course.Course, *course.Block, []*course.Video) ([]string, error) {
	return s.ids, s.err
}

func TestChain(t *testing.T) {
	c, b := testCourse()
	boom := errors.New("boom")
	chain := Chain{
		stubDeleter{ids: []string{"v1", "v2"}},
		stubDeleter{ids: []string{"v2", "v3"}, err: boom},
	}
	ids, err := chain.DeleteVideos(context.Background(), c, b, b.Videos)
	if !errors.Is(err, boom) {
		t.Errorf("Chain error = %v, expected boom", err)
	}
	if len(ids) != 3 {
		t.Errorf("Chain ids = %v, expected union of 3", ids)
	}
}
