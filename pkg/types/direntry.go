package types

const (
	// NameMax bounds the name field of a directory record.
	NameMax = 14

	// DirEntrySize is the fixed width of one directory record.
	DirEntrySize Byte = 20

	// ParentEntryIndex is the reserved record holding the `..`
	// back-pointer; it is populated when the directory is created and
	// never freed.
	ParentEntryIndex = 0
)

// DirEntry is one fixed-width directory record. Free records keep
// their width and are reused before the directory file grows.
type DirEntry struct {
	InUse    bool
	IsSubdir bool
	Name     string
	Sector   SectorIdx
}
