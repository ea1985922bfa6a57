package vm

// ---------------------------------------------------------------------------
// C3 linearization
// ---------------------------------------------------------------------------

// ComputeMRO returns the C3 linearization of c from its declared bases.
// Every base must already be linearized. The result is recomputed from
// scratch and does not modify c.
func (rt *Runtime) ComputeMRO(c *Class) ([]*Class, error) {
	return linearize(c, c.Bases)
}

func linearize(c *Class, bases []*Class) ([]*Class, error) {
	switch len(bases) {
	case 0:
		return []*Class{c}, nil
	case 1:
		// The merge trivially succeeds: [c] + MRO(base).
		base := bases[0]
		mro := make([]*Class, 0, len(base.MRO)+1)
		mro = append(mro, c)
		return append(mro, base.MRO...), nil
	}

	if err := checkDuplicateBases(bases); err != nil {
		return nil, err
	}

	toMerge := make([][]*Class, 0, len(bases)+1)
	for _, b := range bases {
		toMerge = append(toMerge, b.MRO)
	}
	toMerge = append(toMerge, bases)

	return merge(c, toMerge)
}

func checkDuplicateBases(bases []*Class) error {
	for i, b := range bases {
		for _, other := range bases[:i] {
			if other == b {
				return &Error{
					Kind:   KindDuplicateBase,
					Class:  b.Name,
					Detail: "duplicate base class " + b.Name,
				}
			}
		}
	}
	return nil
}

// merge runs the C3 merge of toMerge and prefixes the result with c.
//
// remain[i] is the index of the current head of toMerge[i]; everything before
// it has already been emitted.
func merge(c *Class, toMerge [][]*Class) ([]*Class, error) {
	result := []*Class{c}
	remain := make([]int, len(toMerge))

	for {
		emptyCount := 0
		found := false

		for i, cur := range toMerge {
			if remain[i] >= len(cur) {
				emptyCount++
				continue
			}

			// Choose the first head that is not in the tail of any list.
			candidate := cur[remain[i]]
			if inAnyTail(toMerge, remain, candidate) {
				continue
			}

			result = append(result, candidate)
			for j, other := range toMerge {
				if remain[j] < len(other) && other[remain[j]] == candidate {
					remain[j]++
				}
			}
			found = true
			break
		}

		if found {
			continue
		}
		if emptyCount == len(toMerge) {
			return result, nil
		}
		return nil, mroConflict(c, toMerge, remain)
	}
}

func inAnyTail(toMerge [][]*Class, remain []int, candidate *Class) bool {
	for j, other := range toMerge {
		for k := remain[j] + 1; k < len(other); k++ {
			if other[k] == candidate {
				return true
			}
		}
	}
	return false
}

// mroConflict names the distinct unresolved heads in first-seen order.
func mroConflict(c *Class, toMerge [][]*Class, remain []int) *Error {
	var names []string
	seen := make(map[*Class]bool)
	for i, cur := range toMerge {
		if remain[i] >= len(cur) {
			continue
		}
		head := cur[remain[i]]
		if !seen[head] {
			seen[head] = true
			names = append(names, head.Name)
		}
	}
	return &Error{
		Kind:       KindMroConflict,
		Class:      c.Name,
		Detail:     "cannot create a consistent method resolution order (MRO) for bases",
		Candidates: names,
	}
}

// ---------------------------------------------------------------------------
// Metaclass mro() overrides
// ---------------------------------------------------------------------------

// mroInternal computes c's MRO, honouring an mro() override on its
// metaclass. Called without the runtime lock: the override is user code.
func (rt *Runtime) mroInternal(c *Class) ([]*Class, error) {
	if c.meta == rt.TypeClass || rt.LookupInMRO(c.meta, "mro") == Value(rt.typeMro) {
		return rt.ComputeMRO(c)
	}

	meth, err := rt.GetAttr(c, "mro")
	if err != nil {
		return nil, err
	}
	res, err := rt.Call(meth, nil, nil)
	if err != nil {
		return nil, err
	}
	seq, ok := res.(Tuple)
	if !ok {
		return nil, TypeErrorFor(c.Name, "mro() must return a tuple, not '%s'", rt.TypeName(res))
	}

	mro := make([]*Class, len(seq))
	solid := solidBase(c)
	for i, item := range seq {
		cls, ok := item.(*Class)
		if !ok {
			return nil, TypeErrorFor(c.Name, "mro() returned a non-class ('%s')", rt.TypeName(item))
		}
		if cls != c && !solid.IsSubclassOf(cls.solid) {
			return nil, &Error{
				Kind:   KindLayoutConflict,
				Class:  c.Name,
				Detail: "mro() returned base with unsuitable layout ('" + cls.Name + "')",
			}
		}
		mro[i] = cls
	}
	return mro, nil
}
