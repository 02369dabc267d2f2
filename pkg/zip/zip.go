package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Entry is one file of an archive. Data wins over Path when both are set.
type Entry struct {
	Name string
	Path string
	Data []byte
}

// DirEntries lists the regular files directly inside dir, sorted by name.
func DirEntries(dir string) ([]Entry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, it := range items {
		if !it.Type().IsRegular() {
			continue
		}
		entries = append(entries, Entry{Name: it.Name(), Path: filepath.Join(dir, it.Name())})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// WriteArchive streams entries into a zip written to w.
func WriteArchive(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := addEntry(zw, e); err != nil {
			_ = zw.Close()
			return fmt.Errorf("zip %s: %w", e.Name, err)
		}
	}
	return zw.Close()
}

func addEntry(zw *zip.Writer, e Entry) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	if e.Data != nil {
		_, err = fw.Write(e.Data)
		return err
	}
	f, err := os.Open(e.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(fw, f)
	return err
}
