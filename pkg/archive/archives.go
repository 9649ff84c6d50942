package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/gzip"
)

// StampLayout is the timestamp layout embedded in archive names.
const StampLayout = "2006-01-02_15-04-05"

// Extension is the suffix of every archive.
const Extension = ".gz"

// maxCollisions bounds the "_NNN" suffixes tried for archives created
// within the same second.
const maxCollisions = 999

var stampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}(_\d{3})?$`)

// Info describes one archive of a log file.
type Info struct {
	Path    string
	Stamp   string
	Size    int64
	ModTime time.Time
}

// Name returns the archive name for path at time t, without collision
// suffix: "<path>.<YYYY-MM-DD_HH-mm-ss>.gz".
func Name(path string, t time.Time) string {
	return path + "." + t.Format(StampLayout) + Extension
}

// createArchive exclusively creates the archive file for path at t. When the
// name is taken, "_001", "_002", ... are appended to the stamp; those sort
// after the bare stamp, so name order stays creation order.
func createArchive(path string, t time.Time) (*os.File, string, error) {
	stamp := t.Format(StampLayout)
	for i := 0; i <= maxCollisions; i++ {
		name := path + "." + stamp + Extension
		if i > 0 {
			name = fmt.Sprintf("%s.%s_%03d%s", path, stamp, i, Extension)
		}

		f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", name, err)
		}
	}
	return nil, "", fmt.Errorf("too many archives for %s at %s", path, stamp)
}

// List returns the archives of path, oldest first. Files that merely share
// the prefix but do not carry a valid stamp are ignored.
func List(path string) ([]Info, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	matches, err := doublestar.Glob(os.DirFS(dir), escapeMeta(base)+".*"+Extension)
	if err != nil {
		return nil, fmt.Errorf("glob archives of %s: %w", path, err)
	}

	archives := make([]Info, 0, len(matches))
	for _, m := range matches {
		stamp := strings.TrimSuffix(strings.TrimPrefix(m, base+"."), Extension)
		if !stampPattern.MatchString(stamp) {
			continue
		}

		full := filepath.Join(dir, m)
		st, err := os.Stat(full)
		if err != nil {
			// Pruned by someone else between glob and stat.
			continue
		}
		archives = append(archives, Info{
			Path:    full,
			Stamp:   stamp,
			Size:    st.Size(),
			ModTime: st.ModTime(),
		})
	}

	sort.Slice(archives, func(i, j int) bool { return archives[i].Stamp < archives[j].Stamp })
	return archives, nil
}

// Prune removes the oldest archives of path beyond MaxArchives and returns
// the removed paths. Nothing is removed when MaxArchives is 0.
func (a *Archiver) Prune(path string) ([]string, error) {
	if a.cfg.MaxArchives <= 0 {
		return nil, nil
	}

	archives, err := List(path)
	if err != nil {
		return nil, err
	}
	excess := len(archives) - a.cfg.MaxArchives
	if excess <= 0 {
		return nil, nil
	}

	var (
		removed []string
		errs    []error
	)
	for _, info := range archives[:excess] {
		if err := os.Remove(info.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, info.Path)
	}

	return removed, errors.Join(errs...)
}

// Open returns a reader over the decompressed content of an archive.
func Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open archive %s: %w", name, err)
	}
	return &archiveReader{Reader: gz, file: f}, nil
}

// ReadAll returns the decompressed content of an archive.
func ReadAll(name string) ([]byte, error) {
	r, err := Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type archiveReader struct {
	*gzip.Reader
	file *os.File
}

func (r *archiveReader) Close() error {
	return errors.Join(r.Reader.Close(), r.file.Close())
}

func escapeMeta(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
