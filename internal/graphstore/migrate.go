package graphstore

import (
	"fmt"
	"time"

	"github.com/oldnordic/magellan/internal/types"
)

// CurrentSchemaVersion is the store format version this build writes
// (spec section 9, "Persisted state layout"): a singleton magellan_meta
// row records this, and migration from any older version is applied
// before the store is used.
const CurrentSchemaVersion = 5

// SchemaVersion returns the store's recorded schema version, or 0 if the
// magellan_meta row has never been written (a brand-new store).
func (s *Store) SchemaVersion() int {
	if s.metaVersion == 0 {
		return 0
	}
	return s.metaVersion
}

// migrationSnapshotKinds lists every node kind a migration backup walks.
// Kept as an explicit list (rather than iota-ranging over NodeKind)
// because an added NodeKind that isn't graph-store-owned state (there is
// none today) should not silently join the backup without a decision.
var migrationSnapshotKinds = []types.NodeKind{
	types.NodeFile, types.NodeSymbol, types.NodeReference, types.NodeCall,
	types.NodeImport, types.NodeDisplayName, types.NodeChunk, types.NodeCFGBlock,
}

// MigrationBackup is the timestamped in-memory snapshot Migrate takes
// before applying any version step (spec section 6/9): every node the
// backend held at that instant, keyed by the version transition it backs.
type MigrationBackup struct {
	At          time.Time
	FromVersion int
	ToVersion   int
	Nodes       []Node
}

func (s *Store) snapshotBackend(from, to int) MigrationBackup {
	backup := MigrationBackup{At: time.Now(), FromVersion: from, ToVersion: to}
	for _, kind := range migrationSnapshotKinds {
		backup.Nodes = append(backup.Nodes, s.backend.NodesByKind(kind)...)
	}
	return backup
}

// LastMigrationBackup returns the snapshot taken by the most recent
// Migrate call that actually changed the schema version, or false if
// Migrate has never run a non-trivial migration on this store.
func (s *Store) LastMigrationBackup() (MigrationBackup, bool) {
	if s.lastBackup == nil {
		return MigrationBackup{}, false
	}
	return *s.lastBackup, true
}

// Migrate brings the store from its current recorded version up to
// CurrentSchemaVersion, applying each step described by the original
// implementation's migration notes (spec section 9): v1->v2 creates the
// magellan_meta singleton; v3->v4 is a no-op at the data level (Symbol
// gains optional fields that default to their zero value, which Go
// structs already provide); v4->v5 reserves the ast_nodes side table
// (graphstore doesn't populate it, but a v5 store must tolerate its
// presence). Before applying any step, the whole backend is snapshotted
// into a timestamped MigrationBackup (spec section 6's "writes a
// timestamped backup by default"); every step then runs against the live
// store and the version is bumped atomically at the end, matching the
// original's single-transaction migration.
func (s *Store) Migrate() error {
	from := s.metaVersion
	if from == CurrentSchemaVersion {
		return nil
	}
	if from > CurrentSchemaVersion {
		return newStoreError("migrate", fmt.Errorf("store schema version %d is newer than this build supports (%d)", from, CurrentSchemaVersion))
	}

	backup := s.snapshotBackend(from, CurrentSchemaVersion)
	s.lastBackup = &backup

	for v := from; v < CurrentSchemaVersion; v++ {
		switch v {
		case 0, 1:
			// v1->v2: magellan_meta singleton creation. Already implicit
			// here since metaVersion itself is the singleton's value.
		case 2:
			// v2->v3: no migration notes recorded; treated as a no-op.
		case 3:
			// v3->v4: SymbolNode gains optional fields with zero-value
			// defaults; nothing to backfill.
		case 4:
			// v4->v5: reserve ast_nodes. No rows to create since this
			// backend doesn't materialize side tables as separate
			// objects.
		}
	}
	s.metaVersion = CurrentSchemaVersion
	return nil
}
