package materialize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jorge-barreto/forge/internal/structure"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestMaterializer(t *testing.T, opts ...Option) *Materializer {
	t.Helper()
	m, err := New(filepath.Join(t.TempDir(), "out"), opts...)
	require.NoError(t, err)
	return m
}

func readFile(t *testing.T, m *Materializer, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(m.Root(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestWrite_CreatesParents(t *testing.T) {
	m := newTestMaterializer(t)
	r := m.Write(context.Background(), File{Path: "pkg/util/strings.go", Lang: "go", Content: "package util"})
	require.NoError(t, r.Err)
	assert.True(t, r.OK())
	assert.Equal(t, "pkg/util/strings.go", r.Path)
	assert.Equal(t, "package util", readFile(t, m, "pkg/util/strings.go"))
}

func TestWrite_FullReplace(t *testing.T) {
	m := newTestMaterializer(t)
	ctx := context.Background()
	require.NoError(t, m.Write(ctx, File{Path: "a.txt", Content: "a much longer first version"}).Err)
	require.NoError(t, m.Write(ctx, File{Path: "a.txt", Content: "short"}).Err)
	assert.Equal(t, "short", readFile(t, m, "a.txt"))
}

func TestWrite_DirectoryCollisionUsesEntryPoint(t *testing.T) {
	m := newTestMaterializer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(m.Root(), "app"), 0755))

	r := m.Write(context.Background(), File{Path: "app", Lang: "python", Content: "print(1)"})
	require.NoError(t, r.Err)
	assert.True(t, r.Redirected)
	assert.Equal(t, "app/main.py", r.Path)
	assert.Equal(t, "print(1)", readFile(t, m, "app/main.py"))
}

func TestWriteAll_CollisionWithDirCreatedEarlierInBatch(t *testing.T) {
	m := newTestMaterializer(t, WithWorkers(4))
	results := m.WriteAll(context.Background(), []File{
		{Index: 0, Path: "web/app.js", Lang: "javascript", Content: "a()"},
		{Index: 1, Path: "web", Lang: "javascript", Content: "b()"},
	})
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.Equal(t, "web/index.js", results[1].Path)
	assert.Equal(t, "b()", readFile(t, m, "web/index.js"))
}

func TestWrite_RejectsTraversal(t *testing.T) {
	m := newTestMaterializer(t)
	for _, p := range []string{"../../etc/passwd", "/etc/passwd", "a/../../b", ".."} {
		r := m.Write(context.Background(), File{Path: p, Content: "pwned"})
		require.Error(t, r.Err, "path %q", p)
		assert.True(t, errors.Is(r.Err, ErrOutsideRoot), "path %q: %v", p, r.Err)
		var pe *PathError
		assert.True(t, errors.As(r.Err, &pe))
		assert.False(t, r.OK())
	}
	_, err := os.Stat(filepath.Join(filepath.Dir(m.Root()), "b"))
	assert.True(t, os.IsNotExist(err))
}

func TestWrite_RejectsSymlinkEscape(t *testing.T) {
	m := newTestMaterializer(t)
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(m.Root(), "link")))

	r := m.Write(context.Background(), File{Path: "link/x.txt", Content: "x"})
	require.Error(t, r.Err)
	assert.ErrorIs(t, r.Err, ErrOutsideRoot)
	_, err := os.Stat(filepath.Join(outside, "x.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestWrite_InnerDotDotStaysInside(t *testing.T) {
	m := newTestMaterializer(t)
	r := m.Write(context.Background(), File{Path: "a/../b.txt", Content: "b"})
	require.NoError(t, r.Err)
	assert.Equal(t, "b.txt", r.Path)
}

func TestWriteAll_ContinuesAfterFailure(t *testing.T) {
	m := newTestMaterializer(t)
	require.NoError(t, os.WriteFile(filepath.Join(m.Root(), "file"), []byte("x"), 0644))

	results := m.WriteAll(context.Background(), []File{
		{Index: 0, Path: "file/child.txt", Content: "nope"},
		{Index: 1, Path: "../escape.txt", Content: "nope"},
		{Index: 2, Path: "ok.txt", Content: "fine"},
	})
	require.Len(t, results, 3)
	assert.Error(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrOutsideRoot)
	require.NoError(t, results[2].Err)
	assert.Equal(t, "fine", readFile(t, m, "ok.txt"))
}

func TestWriteAll_SkipsEmpty(t *testing.T) {
	m := newTestMaterializer(t)
	results := m.WriteAll(context.Background(), []File{
		{Path: "empty.py", Content: "  \n"},
		{Path: "__init__.py", Content: "", AllowEmpty: true},
	})
	assert.True(t, results[0].Skipped)
	assert.False(t, results[0].OK())
	_, err := os.Stat(filepath.Join(m.Root(), "empty.py"))
	assert.True(t, os.IsNotExist(err))

	assert.True(t, results[1].OK())
	assert.Equal(t, "", readFile(t, m, "__init__.py"))
}

func TestWriteAll_ParallelLastWriteWins(t *testing.T) {
	m := newTestMaterializer(t, WithWorkers(8))
	var files []File
	for i := 0; i < 20; i++ {
		files = append(files, File{Index: i, Path: fmt.Sprintf("f%d.txt", i%5), Content: fmt.Sprintf("v%d", i)})
	}
	results := m.WriteAll(context.Background(), files)
	for i, r := range results {
		require.NoError(t, r.Err, "file %d", i)
		assert.Equal(t, i, r.Index)
	}
	for j := 0; j < 5; j++ {
		assert.Equal(t, fmt.Sprintf("v%d", 15+j), readFile(t, m, fmt.Sprintf("f%d.txt", j)))
	}
}

func TestWriteAll_CanceledContext(t *testing.T) {
	m := newTestMaterializer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := m.Write(ctx, File{Path: "late.txt", Content: "x"})
	assert.ErrorIs(t, r.Err, context.Canceled)
}

func TestWrite_FinalNewline(t *testing.T) {
	m := newTestMaterializer(t, WithFinalNewline(true))
	r := m.Write(context.Background(), File{Path: "main.go", Content: "package main"})
	require.NoError(t, r.Err)
	assert.Equal(t, "package main\n", readFile(t, m, "main.go"))
	assert.Equal(t, "package main\n", r.Content)
}

func TestCreateDirs(t *testing.T) {
	m := newTestMaterializer(t)
	existing := filepath.Join(m.Root(), "pkg")
	require.NoError(t, os.MkdirAll(existing, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "__init__.py"), []byte("VERSION = 1"), 0644))

	results := m.CreateDirs([]structure.DirectoryHint{
		{Path: "app", Package: true},
		{Path: "app/static"},
		{Path: "pkg", Package: true},
		{Path: "../evil", Package: true},
	})
	require.Len(t, results, 4)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "app/__init__.py", results[0].Marker)
	assert.Equal(t, "", readFile(t, m, "app/__init__.py"))

	require.NoError(t, results[1].Err)
	assert.Empty(t, results[1].Marker)
	assert.DirExists(t, filepath.Join(m.Root(), "app", "static"))

	require.NoError(t, results[2].Err)
	assert.Empty(t, results[2].Marker)
	assert.Equal(t, "VERSION = 1", readFile(t, m, "pkg/__init__.py"))

	assert.ErrorIs(t, results[3].Err, ErrOutsideRoot)
}

func TestCreateDirs_RejectsSymlinkEscape(t *testing.T) {
	m := newTestMaterializer(t)
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(m.Root(), "pkg")))

	results := m.CreateDirs([]structure.DirectoryHint{
		{Path: "pkg", Package: true},
		{Path: "pkg/sub", Package: true},
	})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, ErrOutsideRoot, r.Path)
		assert.Empty(t, r.Marker)
	}
	assert.NoFileExists(t, filepath.Join(outside, "__init__.py"))
	assert.NoDirExists(t, filepath.Join(outside, "sub"))
}

func TestWrite_RejectsSymlinkedTarget(t *testing.T) {
	m := newTestMaterializer(t)
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(m.Root(), "pkg")))

	r := m.Write(context.Background(), File{Path: "pkg", Lang: "python", Content: "x = 1"})
	assert.ErrorIs(t, r.Err, ErrOutsideRoot)
	assert.NoFileExists(t, filepath.Join(outside, "main.py"))
}

func TestCreateDirs_InsideSymlinkAllowed(t *testing.T) {
	m := newTestMaterializer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(m.Root(), "real"), 0755))
	require.NoError(t, os.Symlink(filepath.Join(m.Root(), "real"), filepath.Join(m.Root(), "alias")))

	results := m.CreateDirs([]structure.DirectoryHint{{Path: "alias", Package: true}})
	require.NoError(t, results[0].Err)
	assert.FileExists(t, filepath.Join(m.Root(), "real", "__init__.py"))
}

func TestCreateDirs_MarkerDisabled(t *testing.T) {
	m := newTestMaterializer(t, WithMarker(""))
	results := m.CreateDirs([]structure.DirectoryHint{{Path: "lib", Package: true}})
	require.NoError(t, results[0].Err)
	assert.NoFileExists(t, filepath.Join(m.Root(), "lib", "__init__.py"))
}

func TestWrite_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := newTestMaterializer(t, WithLogger(zap.New(core)))
	m.Write(context.Background(), File{Path: "ok.txt", Content: "ok"})
	m.Write(context.Background(), File{Path: "../bad.txt", Content: "bad"})

	assert.Equal(t, 1, logs.FilterMessage("wrote file").Len())
	failed := logs.FilterMessage("file write failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, true, failed[0].ContextMap()["outside_root"])
}
