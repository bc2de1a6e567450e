package vos

import (
	"errors"
	"io/fs"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func newTestDir(t *testing.T) *Dir {
	t.Helper()

	mfs := afero.NewMemMapFs()
	for _, d := range []string{"/home/user/src", "/tmp"} {
		if err := mfs.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := mfs.Mkdir("/locked", 0600); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(mfs, "/home/user/file.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	return NewDir(mfs, "/home/user")
}

func TestDir_Chdir(t *testing.T) {
	cases := map[string]struct {
		target  string
		want    string
		wantErr error
	}{
		"absolute":      {"/tmp", "/tmp", nil},
		"relative":      {"src", "/home/user/src", nil},
		"parent":        {"..", "/home", nil},
		"dot":           {".", "/home/user", nil},
		"missing":       {"/nonexistent", "/home/user", fs.ErrNotExist},
		"not directory": {"file.txt", "/home/user", nil},
		"no permission": {"/locked", "/home/user", fs.ErrPermission},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			d := newTestDir(t)
			err := d.Chdir(tc.target)

			assert.Equal(t, tc.want, d.Getwd())
			if tc.want == "/home/user" && tc.target != "." {
				assert.Error(t, err)
				var pe *fs.PathError
				assert.True(t, errors.As(err, &pe))
				assert.Equal(t, "chdir", pe.Op)
			} else {
				assert.Nil(t, err)
			}
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			}
		})
	}
}

func TestDir_Resolve(t *testing.T) {
	d := NewDir(afero.NewMemMapFs(), "/srv/app/")

	assert.Equal(t, "/srv/app", d.Getwd())
	assert.Equal(t, "/srv/app/.env", d.Resolve(".env"))
	assert.Equal(t, "/etc/hosts", d.Resolve("/etc/../etc/hosts"))
}

func TestDir_Chdir_accessCheck(t *testing.T) {
	d := newTestDir(t).WithAccessCheck(func(path string) error {
		if path == "/tmp" {
			return syscall.EACCES
		}
		return nil
	})

	err := d.Chdir("/tmp")
	assert.True(t, errors.Is(err, fs.ErrPermission), "got %v", err)
	assert.Equal(t, "/home/user", d.Getwd())

	assert.Nil(t, d.Chdir("src"))
	assert.Equal(t, "/home/user/src", d.Getwd())
}
