package skill

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/yorulabs/skills-mcp/pkg/logger"
)

// ScanWarning records a skill directory that was skipped during a scan.
type ScanWarning struct {
	Dir string `json:"dir"`
	Err *Error `json:"-"`

	// Reason is Err.Error(), duplicated for JSON consumers.
	Reason string `json:"reason"`
}

// snapshot is one immutable view of the skills root. Readers hold a
// snapshot pointer and never observe a half-built index; a rescan
// builds a new snapshot and swaps the pointer.
type snapshot struct {
	records  []*Record          // discovery order
	byName   map[string]*Record // identifier -> record
	rejected map[string]*Error  // directory name -> why it was skipped
	warnings []ScanWarning
}

// Registry owns all loaded skill records for a single root directory.
// Reads are lock-free apart from the pointer fetch; Scan rebuilds the
// whole snapshot and publishes it atomically.
type Registry struct {
	root string

	mu   sync.RWMutex
	snap *snapshot
}

// NewRegistry creates a registry over the given skills root. No
// filesystem access happens until Scan or the first query.
func NewRegistry(root string) *Registry {
	return &Registry{root: root}
}

// Root returns the configured skills root directory.
func (r *Registry) Root() string {
	return r.root
}

// Scan rebuilds the registry from disk and publishes the result. A
// directory whose descriptor fails to parse is skipped and reported as
// a warning; only an unreadable root fails the scan itself.
func (r *Registry) Scan() ([]ScanWarning, error) {
	snap, err := r.buildSnapshot()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	logger.Infof("Skill scan complete: %d loaded, %d skipped from %s", len(snap.records), len(snap.warnings), r.root)
	return snap.warnings, nil
}

// List returns all loaded records in discovery order. The slice is
// freshly allocated; the records themselves are shared and immutable.
func (r *Registry) List() ([]*Record, error) {
	snap, err := r.current()
	if err != nil {
		return nil, err
	}

	records := make([]*Record, len(snap.records))
	copy(records, snap.records)
	return records, nil
}

// Get returns the record for a skill identifier. A directory that was
// rejected during the scan reports its rejection reason (for example
// IdentifierMismatch) rather than a bare not-found.
func (r *Registry) Get(name string) (*Record, error) {
	snap, err := r.current()
	if err != nil {
		return nil, err
	}

	if rec, ok := snap.byName[name]; ok {
		return rec, nil
	}
	if rejErr, ok := snap.rejected[name]; ok {
		return nil, rejErr
	}
	return nil, Errorf(KindSkillNotFound, "skill %q not found", name)
}

// Warnings returns the warnings from the most recent scan.
func (r *Registry) Warnings() ([]ScanWarning, error) {
	snap, err := r.current()
	if err != nil {
		return nil, err
	}
	return snap.warnings, nil
}

// current returns the published snapshot, scanning lazily on first use.
func (r *Registry) current() (*snapshot, error) {
	r.mu.RLock()
	snap := r.snap
	r.mu.RUnlock()

	if snap != nil {
		return snap, nil
	}

	if _, err := r.Scan(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap, nil
}

func (r *Registry) buildSnapshot() (*snapshot, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		byName:   make(map[string]*Record),
		rejected: make(map[string]*Error),
	}

	for _, entry := range entries {
		dir := filepath.Join(r.root, entry.Name())

		// Follow symlinks so linked skill directories work.
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		descriptorPath := filepath.Join(dir, DescriptorFile)
		content, err := os.ReadFile(descriptorPath)
		if err != nil {
			// Not a skill package.
			continue
		}

		rec, loadErr := loadRecord(entry.Name(), dir, content)
		if loadErr != nil {
			logger.Warnf("Skipping skill directory %s: %v", dir, loadErr)
			snap.rejected[entry.Name()] = loadErr
			snap.warnings = append(snap.warnings, ScanWarning{
				Dir:    dir,
				Err:    loadErr,
				Reason: loadErr.Error(),
			})
			continue
		}

		snap.records = append(snap.records, rec)
		snap.byName[rec.Name] = rec
	}

	return snap, nil
}

// loadRecord parses one skill directory into an immutable Record.
func loadRecord(dirName, dir string, descriptor []byte) (*Record, *Error) {
	desc, body, err := ParseDescriptor(descriptor)
	if err != nil {
		var se *Error
		if !errors.As(err, &se) {
			se = WrapErr(KindMalformedDescriptor, err, "failed to parse descriptor")
		}
		return nil, se
	}

	// The frontmatter name must equal the containing directory name;
	// only the registry knows the directory, so the binding is checked
	// here rather than in the parser.
	if desc.Name != dirName {
		return nil, Errorf(KindIdentifierMismatch, "descriptor name %q does not match directory %q", desc.Name, dirName)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		root = dir
	}

	return &Record{
		Descriptor:   *desc,
		Root:         root,
		Instructions: body,
		Scripts:      listSubtree(dir, "scripts"),
		References:   listSubtree(dir, "references"),
		Assets:       listSubtree(dir, "assets"),
		LoadedAt:     time.Now(),
	}, nil
}

// listSubtree returns sorted relative paths of all regular files under
// dir/sub, at any depth. A missing subdirectory yields nil.
func listSubtree(dir, sub string) []string {
	base := filepath.Join(dir, sub)

	var files []string
	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})

	sort.Strings(files)
	return files
}
