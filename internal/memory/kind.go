package memory

// Kind identifies which part of the memory tree a document belongs to.
type Kind string

const (
	KindCore     Kind = "core"
	KindFact     Kind = "fact"
	KindAdr      Kind = "adr"
	KindPlaybook Kind = "playbook"
	KindRecap    Kind = "recap"
)

// DirName returns the directory segment under the memory root that holds
// documents of this kind.
func (k Kind) DirName() string {
	switch k {
	case KindCore:
		return "core"
	case KindFact:
		return "facts"
	case KindAdr:
		return "decisions"
	case KindPlaybook:
		return "playbooks"
	case KindRecap:
		return "recaps"
	default:
		return "facts"
	}
}
