// dunder CLI - inspect class hierarchies declared in dunder.toml
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/dunder/manifest"
	"github.com/chazu/dunder/snapshot"
	"github.com/chazu/dunder/vm"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	manifestPath := flag.String("manifest", "", "Directory containing dunder.toml (default: search upward from the working directory)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dunder [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Builds the classes declared in dunder.toml and inspects them.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  mro <class>                 Print a class's method resolution order\n")
		fmt.Fprintf(os.Stderr, "  slots <class>               Print a class's slot table\n")
		fmt.Fprintf(os.Stderr, "  dump                        Print every declared class\n")
		fmt.Fprintf(os.Stderr, "  save <db> <label>           Store a snapshot of the declared classes\n")
		fmt.Fprintf(os.Stderr, "  list <db>                   List stored snapshots\n")
		fmt.Fprintf(os.Stderr, "  diff <db> <label> [label]   Compare two snapshots, or one with the manifest\n")
		fmt.Fprintf(os.Stderr, "  browse                      Browse the declared classes interactively\n")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(os.Stdout, *manifestPath, *verbose, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session is a runtime built from a manifest.
type session struct {
	rt       *vm.Runtime
	manifest *manifest.Manifest
	classes  []*vm.Class // declared classes in build order
}

func loadSession(dir string, verbose bool) (*session, error) {
	var m *manifest.Manifest
	var err error
	if dir != "" {
		m, err = manifest.Load(dir)
	} else {
		m, err = manifest.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}
	if m == nil {
		// No manifest: only the built-in classes exist.
		m = &manifest.Manifest{}
	}

	verbosity := m.Verbosity()
	if verbose && verbosity < 1 {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	rt, classes, err := m.NewRuntime()
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Built %d classes from %s\n", len(classes), describeManifest(m))
	}
	return &session{rt: rt, manifest: m, classes: classes}, nil
}

func describeManifest(m *manifest.Manifest) string {
	if m.Dir == "" {
		return "built-ins only"
	}
	return m.Dir
}

// lookup finds a declared class first, then a built-in one.
func (s *session) lookup(name string) (*vm.Class, error) {
	for _, c := range s.classes {
		if c.Name == name {
			return c, nil
		}
	}
	if manifest.IsReservedName(name) {
		if c := s.rt.Classes.LookupName(name); c != nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown class %q", name)
}

func run(w io.Writer, dir string, verbose bool, args []string) error {
	cmd, rest := args[0], args[1:]
	need := func(n int, usage string) error {
		if len(rest) < n {
			return fmt.Errorf("usage: dunder %s %s", cmd, usage)
		}
		return nil
	}

	switch cmd {
	case "list":
		if err := need(1, "<db>"); err != nil {
			return err
		}
		return listSnapshots(w, rest[0])
	case "mro", "slots", "dump", "save", "diff", "browse":
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	s, err := loadSession(dir, verbose)
	if err != nil {
		return err
	}

	switch cmd {
	case "mro":
		if err := need(1, "<class>"); err != nil {
			return err
		}
		c, err := s.lookup(rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, renderMRO(c))
	case "slots":
		if err := need(1, "<class>"); err != nil {
			return err
		}
		c, err := s.lookup(rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, renderSlots(snapshot.Record(c)))
	case "dump":
		fmt.Fprintln(w, renderClasses(snapshot.Take(s.rt, s.classes...)))
	case "save":
		if err := need(2, "<db> <label>"); err != nil {
			return err
		}
		return saveSnapshot(w, s, rest[0], rest[1])
	case "diff":
		if err := need(2, "<db> <label> [label]"); err != nil {
			return err
		}
		return diffSnapshots(w, s, rest[0], rest[1:])
	case "browse":
		return browse(s)
	}
	return nil
}

func saveSnapshot(w io.Writer, s *session, db, label string) error {
	store, err := snapshot.Open(db)
	if err != nil {
		return err
	}
	defer store.Close()

	key, err := store.Put(label, snapshot.Take(s.rt, s.classes...))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "saved %s (%s, %d classes)\n", label, key, len(s.classes))
	return nil
}

func listSnapshots(w io.Writer, db string) error {
	store, err := snapshot.Open(db)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, renderEntries(entries))
	return nil
}

// diffSnapshots compares two stored snapshots, or a stored snapshot with
// the classes the manifest builds now.
func diffSnapshots(w io.Writer, s *session, db string, labels []string) error {
	store, err := snapshot.Open(db)
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := store.Get(labels[0])
	if err != nil {
		return err
	}
	b := snapshot.Take(s.rt, s.classes...)
	if len(labels) > 1 {
		if b, err = store.Get(labels[1]); err != nil {
			return err
		}
	}

	changes := snapshot.Diff(a, b)
	if len(changes) == 0 {
		fmt.Fprintln(w, "no differences")
		return nil
	}
	fmt.Fprintln(w, renderChanges(changes))
	return nil
}
