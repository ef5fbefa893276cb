package title

import "strconv"

// Namespace identifies a wiki namespace. Negative namespaces are virtual and
// can never hold stored pages.
type Namespace int

const (
	NamespaceMedia         Namespace = -2
	NamespaceSpecial       Namespace = -1
	NamespaceMain          Namespace = 0
	NamespaceTalk          Namespace = 1
	NamespaceUser          Namespace = 2
	NamespaceUserTalk      Namespace = 3
	NamespaceProject       Namespace = 4
	NamespaceProjectTalk   Namespace = 5
	NamespaceFile          Namespace = 6
	NamespaceFileTalk      Namespace = 7
	NamespaceMediaWiki     Namespace = 8
	NamespaceMediaWikiTalk Namespace = 9
	NamespaceTemplate      Namespace = 10
	NamespaceTemplateTalk  Namespace = 11
	NamespaceHelp          Namespace = 12
	NamespaceHelpTalk      Namespace = 13
	NamespaceCategory      Namespace = 14
	NamespaceCategoryTalk  Namespace = 15
)

// MinCustomNamespace is the lowest id accepted for configured namespaces.
const MinCustomNamespace Namespace = 100

var builtinNames = map[Namespace]string{
	NamespaceMedia:         "Media",
	NamespaceSpecial:       "Special",
	NamespaceMain:          "",
	NamespaceTalk:          "Talk",
	NamespaceUser:          "User",
	NamespaceUserTalk:      "User talk",
	NamespaceProject:       "Project",
	NamespaceProjectTalk:   "Project talk",
	NamespaceFile:          "File",
	NamespaceFileTalk:      "File talk",
	NamespaceMediaWiki:     "MediaWiki",
	NamespaceMediaWikiTalk: "MediaWiki talk",
	NamespaceTemplate:      "Template",
	NamespaceTemplateTalk:  "Template talk",
	NamespaceHelp:          "Help",
	NamespaceHelpTalk:      "Help talk",
	NamespaceCategory:      "Category",
	NamespaceCategoryTalk:  "Category talk",
}

// aliases resolve to a builtin namespace but are never produced when printing titles.
var builtinAliases = map[string]Namespace{
	"Image":      NamespaceFile,
	"Image talk": NamespaceFileTalk,
}

// String returns the canonical builtin name, or the numeric id for unknown namespaces.
func (n Namespace) String() string {
	if name, ok := builtinNames[n]; ok {
		if name == "" {
			return "(Main)"
		}
		return name
	}
	return strconv.Itoa(int(n))
}

// IsTalk reports whether n is a discussion namespace.
func (n Namespace) IsTalk() bool {
	return n > NamespaceMain && n%2 == 1
}

// CanHoldPages reports whether pages can be stored in n.
func (n Namespace) CanHoldPages() bool {
	return n >= NamespaceMain
}
