package mirror

// OpType is the kind of mutation applied to the destination tree.
type OpType uint8

const (
	OpCreated OpType = iota
	OpCopied
	OpRemoved
)

var opTypeNames = []string{
	"created",
	"copied",
	"removed",
}

func (op OpType) String() string {
	return opTypeNames[op]
}

// Operation is a single planned mutation of the destination tree.
type Operation struct {
	Op      OpType
	RelPath string
	// Entry is the source entry for created/copied operations and the
	// destination entry for removed operations.
	Entry *FileEntry
}
