package store

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewWithFs(afero.NewMemMapFs(), "files")
	require.NoError(t, err)
	return s
}

func mustSave(t *testing.T, s *Store, name, body string, policy Policy) SaveResult {
	t.Helper()
	res, err := s.Save(name, strings.NewReader(body), policy)
	require.NoError(t, err)
	return res
}

func readStored(t *testing.T, s *Store, name string) string {
	t.Helper()
	f, _, err := s.Open(name)
	require.NoError(t, err)
	defer f.Close()
	data, err := afero.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"report.txt", "report.txt", true},
		{"my file.txt", "my_file.txt", true},
		{"../../etc/passwd", "passwd", true},
		{"..\\..\\boot.ini", "boot.ini", true},
		{"/absolute/path.bin", "path.bin", true},
		{".bashrc", "bashrc", true},
		{"archive.tar.gz", "archive.tar.gz", true},
		{"über geil.png", "ber_geil.png", true},
		{"..", "", false},
		{".", "", false},
		{"", "", false},
		{"///", "", false},
		{"....", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Sanitize(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIncrementName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"report.txt", "report_1.txt"},
		{"report_1.txt", "report_2.txt"},
		{"report_9.txt", "report_10.txt"},
		{"report_10.txt", "report_11.txt"},
		{"report_99.txt", "report_100.txt"},
		{"noext", "noext_1"},
		{"noext_3", "noext_4"},
		{"archive.tar.gz", "archive.tar_1.gz"},
		{"v2_final.txt", "v2_final_1.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, incrementName(tt.in))
		})
	}
}

func TestSaveNewFileAnyPolicy(t *testing.T) {
	for _, policy := range []Policy{Fail, Skip, Keep, Overwrite} {
		t.Run(policy.String(), func(t *testing.T) {
			s := newTestStore(t)
			res := mustSave(t, s, "fresh.txt", "hello", policy)
			assert.Equal(t, "fresh.txt", res.Name)
			assert.False(t, res.Skipped)
			assert.Equal(t, "hello", readStored(t, s, "fresh.txt"))
		})
	}
}

func TestSaveFailPolicy(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, "a.txt", "original", Fail)

	_, err := s.Save("a.txt", strings.NewReader("new"), Fail)
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, "original", readStored(t, s, "a.txt"))
}

func TestSaveSkipPolicy(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, "a.txt", "original", Fail)

	res := mustSave(t, s, "a.txt", "new", Skip)
	assert.True(t, res.Skipped)
	assert.Equal(t, "a.txt", res.Name)
	assert.Equal(t, "original", readStored(t, s, "a.txt"))
}

func TestSaveOverwritePolicy(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, "a.txt", "original", Fail)

	res := mustSave(t, s, "a.txt", "replaced", Overwrite)
	assert.False(t, res.Skipped)
	assert.Equal(t, "a.txt", res.Name)
	assert.Equal(t, "replaced", readStored(t, s, "a.txt"))
}

func TestSaveKeepPolicy(t *testing.T) {
	s := newTestStore(t)

	first := mustSave(t, s, "report.txt", "one", Keep)
	second := mustSave(t, s, "report.txt", "two", Keep)
	third := mustSave(t, s, "report.txt", "three", Keep)

	assert.Equal(t, "report.txt", first.Name)
	assert.Equal(t, "report_1.txt", second.Name)
	assert.Equal(t, "report_2.txt", third.Name)
	assert.Equal(t, "one", readStored(t, s, "report.txt"))
	assert.Equal(t, "two", readStored(t, s, "report_1.txt"))
	assert.Equal(t, "three", readStored(t, s, "report_2.txt"))
}

func TestSaveKeepSkipsOccupiedSuffixes(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, "log.txt", "a", Fail)
	mustSave(t, s, "log_1.txt", "b", Fail)
	mustSave(t, s, "log_2.txt", "c", Fail)

	res := mustSave(t, s, "log.txt", "d", Keep)
	assert.Equal(t, "log_3.txt", res.Name)
}

func TestSaveSanitizesName(t *testing.T) {
	s := newTestStore(t)
	res := mustSave(t, s, "../../evil name.sh", "x", Fail)
	assert.Equal(t, "evil_name.sh", res.Name)

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"evil_name.sh"}, names)
}

func TestSaveInvalidName(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"", "..", "///", "...."} {
		_, err := s.Save(name, strings.NewReader("x"), Fail)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestListEmptyStore(t *testing.T) {
	s := newTestStore(t)
	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListSkipsDirectories(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, "a.txt", "a", Fail)
	require.NoError(t, s.fs.MkdirAll("files/nested", 0o755))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names)
}

func TestOpenNotFound(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Open("ghost.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIdempotentOutcome(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, "a.txt", "a", Fail)

	require.NoError(t, s.Delete("a.txt"))
	assert.ErrorIs(t, s.Delete("a.txt"), ErrNotFound)
	assert.ErrorIs(t, s.Delete("a.txt"), ErrNotFound)

	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRoundTrip(t *testing.T) {
	s := newTestStore(t)
	payload := "some\x00binary\xffpayload\n"
	mustSave(t, s, "blob.bin", payload, Fail)
	assert.Equal(t, payload, readStored(t, s, "blob.bin"))
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"fail", Fail, false},
		{"skip", Skip, false},
		{"keep", Keep, false},
		{"overwrite", Overwrite, false},
		{"", Fail, false},
		{"KEEP", Fail, true},
		{"rename", Fail, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
