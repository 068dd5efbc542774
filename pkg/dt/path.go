package dt

import "strings"

// Resolve follows a traversal path of the form `/a/b/c` (spec §4.7
// "Traversal helpers"). A leading slash selects the root and each
// remaining component matches a node's full name exactly, including any
// `@unit` suffix. A bare path with no leading slash is resolved through
// `/aliases`: the aliases node's property of that name yields a full path
// string, which is then followed from the root.
func (d *Doc) Resolve(path string) (Node, error) {
	if strings.HasPrefix(path, "/") {
		return d.followAbsolutePath(path)
	}
	target, err := d.resolveAlias(path)
	if err != nil {
		return Node{}, err
	}
	return d.followAbsolutePath(target)
}

func (d *Doc) resolveAlias(name string) (string, error) {
	aliases, err := d.followAbsolutePath("/aliases")
	if err != nil {
		return "", err
	}
	val, err := aliases.GetProp(name)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(val), "\x00"), nil
}

func (d *Doc) followAbsolutePath(path string) (Node, error) {
	cur := d.RootNode()
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return cur, nil
	}
	for _, comp := range strings.Split(trimmed, "/") {
		next, err := findChildByFullName(cur, comp)
		if err != nil {
			return Node{}, err
		}
		cur = next
	}
	return cur, nil
}

func findChildByFullName(n Node, name string) (Node, error) {
	it := n.Nodes()
	for {
		child, ok, err := it.Next()
		if err != nil {
			return Node{}, err
		}
		if !ok {
			return Node{}, newErr(ErrKindNotFound, 0, nil)
		}
		childName, err := child.Name()
		if err != nil {
			return Node{}, err
		}
		if childName == name {
			return child, nil
		}
	}
}
