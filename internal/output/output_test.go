// ABOUTME: Tests for completion stores, CSV encoding and merging.
// ABOUTME: Uses temp directories for disk behaviour and MemStore for the virtual store.

package output

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/2389/partnergen/internal/contact"
)

func rec(name, email, ig string) contact.Record {
	return contact.Record{
		Name: name, Email: email, Instagram: ig,
		Country: "FRA", Language: "fr", City: "Paris", Type: contact.Journalist,
	}
}

func TestPairPath(t *testing.T) {
	got := PairPath("out", "são paulo_brazil", contact.NGO)
	want := filepath.Join("out", "s_o_paulo_brazil", "ngo", "contacts.csv")
	if got != want {
		t.Errorf("PairPath() = %q, want %q", got, want)
	}
}

func TestEncodeCSV(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, EncodeCSV(&sb, []contact.Record{
		rec("A", "a@x.com", ""),
		{Name: "B, Jr.", Instagram: "@b", Notes: `says "hi"`, Type: contact.Other},
	}))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,email,country,language,city,instagram,phone,organization,type,notes", lines[0])
	assert.Equal(t, "A,a@x.com,FRA,fr,Paris,,,,journalist,", lines[1])
	assert.Equal(t, `"B, Jr.",,,,,@b,,,other,"says ""hi"""`, lines[2])
}

func TestFileStore_WriteAndExists(t *testing.T) {
	dir := t.TempDir()
	path := PairPath(dir, "paris_france", contact.Journalist)
	store := FileStore{}

	assert.False(t, store.Exists(path))
	require.NoError(t, store.Write(path, []contact.Record{rec("A", "a@x.com", "")}))
	assert.True(t, store.Exists(path))

	// Overwrite replaces content and leaves no temp files.
	require.NoError(t, store.Write(path, []contact.Record{rec("B", "b@x.com", "")}))
	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Name)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileName, entries[0].Name())
}

func TestFileStore_EmptyRecordsStillMarksDone(t *testing.T) {
	path := PairPath(t.TempDir(), "oslo_norway", contact.Podcaster)
	require.NoError(t, FileStore{}.Write(path, nil))
	assert.True(t, FileStore{}.Exists(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(contact.Header, ",")+"\n", string(b))
}

func TestFileStore_DirectoryIsNotCompletion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contacts.csv")
	require.NoError(t, os.Mkdir(path, 0o755))
	assert.False(t, FileStore{}.Exists(path))
}

func TestMemStore(t *testing.T) {
	m := NewMemStore()
	path := PairPath("out", "paris_france", contact.NGO)
	assert.False(t, m.Exists(path))

	require.NoError(t, m.Write(path, []contact.Record{rec("A", "a@x.com", "")}))
	assert.True(t, m.Exists("out/paris_france/ngo/../ngo/contacts.csv"))

	b, ok := m.Get(path)
	require.True(t, ok)
	records, err := DecodeCSV(strings.NewReader(string(b)))
	require.NoError(t, err)
	assert.Equal(t, []contact.Record{rec("A", "a@x.com", "")}, records)
	assert.Equal(t, []string{filepath.Clean(path)}, m.Paths())
}

func TestDecodeCSV_HeaderMapped(t *testing.T) {
	in := "\ufeffemail,name,extra\na@x.com,A,zzz\nb@x.com\n"
	got, err := DecodeCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "a@x.com", got[0].Email)
	assert.Equal(t, "", got[1].Name)
	assert.Equal(t, "b@x.com", got[1].Email)
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMerge(t *testing.T) {
	root := t.TempDir()
	store := FileStore{}
	require.NoError(t, store.Write(PairPath(root, "lisbon_portugal", contact.NGO), []contact.Record{
		rec("First", "shared@x.org", ""),
		rec("L1", "", "@l1"),
	}))
	require.NoError(t, store.Write(PairPath(root, "paris_france", contact.Journalist), []contact.Record{
		rec("Second", "SHARED@x.org", ""),
		rec("P1", "p1@x.org", ""),
		{Name: "Ghost"},
	}))
	writeRaw(t, filepath.Join(root, "paris_france", "other", FileName), "name,email\n\"broken\"quote,x\n")
	writeRaw(t, filepath.Join(root, "paris_france", "notes.txt"), "ignored")

	merged := filepath.Join(t.TempDir(), "merged.csv")
	report, err := Merge(context.Background(), root, merged, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.True(t, report.Written)
	assert.Equal(t, 3, report.Unique)
	assert.Equal(t, 1, report.Duplicate)
	assert.Equal(t, 1, report.NoChannel)
	require.Len(t, report.Files, 3)
	require.Len(t, report.Failed(), 1)
	assert.Contains(t, report.Failed()[0].Path, filepath.Join("paris_france", "other"))

	got, err := ReadCSV(merged)
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"First", "L1", "P1"}, names)
}

func TestMerge_NoSurvivorsWritesNothing(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, FileStore{}.Write(PairPath(root, "oslo_norway", contact.NGO), nil))

	merged := filepath.Join(t.TempDir(), "merged.csv")
	report, err := Merge(context.Background(), root, merged, nil)
	require.NoError(t, err)
	assert.False(t, report.Written)
	assert.NoFileExists(t, merged)
}

func TestMerge_NoFiles(t *testing.T) {
	_, err := Merge(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "m.csv"), nil)
	assert.ErrorIs(t, err, ErrNoSourceFiles)

	_, err = Merge(context.Background(), filepath.Join(t.TempDir(), "missing"), "m.csv", nil)
	assert.ErrorIs(t, err, ErrNoSourceFiles)
}

func TestMerge_Idempotent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, FileStore{}.Write(PairPath(root, "a_x", contact.NGO), []contact.Record{
		rec("A", "a@x.org", ""), rec("B", "", "@b"),
	}))
	require.NoError(t, FileStore{}.Write(PairPath(root, "b_y", contact.NGO), []contact.Record{
		rec("A again", "A@X.org", ""), rec("C", "c@x.org", ""),
	}))

	keys := func(path string) []string {
		records, err := ReadCSV(path)
		require.NoError(t, err)
		var out []string
		for _, r := range records {
			k, _ := r.Key()
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	}

	out := t.TempDir()
	first := filepath.Join(out, "first.csv")
	second := filepath.Join(out, "second.csv")
	_, err := Merge(context.Background(), root, first, nil)
	require.NoError(t, err)
	_, err = Merge(context.Background(), root, second, nil)
	require.NoError(t, err)

	assert.Equal(t, keys(first), keys(second))
	assert.Equal(t, []string{"a@x.org", "c@x.org", "ig:@b"}, keys(first))
}

func TestMerge_SkipsOwnOutput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, FileStore{}.Write(PairPath(root, "a_x", contact.NGO), []contact.Record{rec("A", "a@x.org", "")}))

	merged := filepath.Join(root, FileName)
	_, err := Merge(context.Background(), root, merged, nil)
	require.NoError(t, err)

	report, err := Merge(context.Background(), root, merged, nil)
	require.NoError(t, err)
	assert.Len(t, report.Files, 1)
}
