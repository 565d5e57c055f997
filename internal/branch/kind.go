package branch

// BranchKind classifies how the last statement of a block leaves the
// surrounding control flow.
type BranchKind int

const (
	Empty BranchKind = iota

	// Return branches return from the current function
	Return

	// Continue branches continue a surrounding loop
	Continue

	// Break branches break out of a surrounding loop
	Break

	// Raise branches raise an exception
	Raise

	// Regular branches not categorized as any of the above
	Regular
)

func (k BranchKind) IsEmpty() bool  { return k == Empty }
func (k BranchKind) Returns() bool  { return k == Return }
func (k BranchKind) Branch() Branch { return Branch{BranchKind: k} }

// Deviates reports whether the branch always leaves the enclosing
// construct, so no statement placed after it in the same block runs.
func (k BranchKind) Deviates() bool {
	switch k {
	case Empty, Regular:
		return false
	case Return, Continue, Break, Raise:
		return true
	default:
		panic("unreachable")
	}
}

func (k BranchKind) String() string {
	switch k {
	case Empty:
		return ""
	case Regular:
		return "..."
	case Return:
		return "... return"
	case Continue:
		return "... continue"
	case Break:
		return "... break"
	case Raise:
		return "... raise"
	default:
		panic("invalid kind")
	}
}
