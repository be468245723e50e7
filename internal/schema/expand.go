package schema

import "slices"

// Expand returns a copy of the package with implied constraints made
// explicit:
//   - fields referenced by a foreign key become a unique key of the parent,
//     unless the parent's primary key already covers exactly those fields
//   - primary key fields become required
//   - single-field unique keys become the field's unique constraint
//
// The receiver is not modified.
func (p *Package) Expand() *Package {
	out := p.Clone()

	for i := range out.Resources {
		child := &out.Resources[i]
		for _, fk := range child.Schema.ForeignKeys {
			parent := child
			if fk.Reference.Resource != "" {
				res, ok := out.Resource(fk.Reference.Resource)
				if !ok {
					continue
				}
				parent = res
			}
			parent.Schema.addUniqueKey(fk.Reference.Fields)
		}
	}

	for i := range out.Resources {
		s := &out.Resources[i].Schema
		for _, name := range s.PrimaryKey {
			if f, ok := s.Field(name); ok {
				f.Constraints.Required = true
			}
		}
		keys := s.UniqueKeys[:0]
		for _, key := range s.UniqueKeys {
			if len(key) == 1 {
				if f, ok := s.Field(key[0]); ok {
					f.Constraints.Unique = true
					continue
				}
			}
			keys = append(keys, key)
		}
		s.UniqueKeys = keys
		if len(s.UniqueKeys) == 0 {
			s.UniqueKeys = nil
		}
	}
	return out
}

func (s *Schema) addUniqueKey(key []string) {
	if slices.Equal(key, s.PrimaryKey) {
		return
	}
	for _, k := range s.UniqueKeys {
		if slices.Equal(k, key) {
			return
		}
	}
	s.UniqueKeys = append(s.UniqueKeys, slices.Clone(key))
}

// Clone returns a deep copy of the package.
func (p *Package) Clone() *Package {
	out := &Package{Name: p.Name, BasePath: p.BasePath}
	out.Resources = make([]Resource, len(p.Resources))
	for i, r := range p.Resources {
		out.Resources[i] = r.clone()
	}
	return out
}

func (r Resource) clone() Resource {
	out := r
	out.Path = slices.Clone(r.Path)
	if r.SQL != nil {
		sql := *r.SQL
		out.SQL = &sql
	}
	out.Schema = r.Schema.clone()
	return out
}

func (s Schema) clone() Schema {
	out := Schema{
		PrimaryKey:    slices.Clone(s.PrimaryKey),
		MissingValues: slices.Clone(s.MissingValues),
	}
	out.Fields = make([]Field, len(s.Fields))
	for i, f := range s.Fields {
		f.TrueValues = slices.Clone(f.TrueValues)
		f.FalseValues = slices.Clone(f.FalseValues)
		f.Constraints.Enum = slices.Clone(f.Constraints.Enum)
		if f.Constraints.MinLength != nil {
			n := *f.Constraints.MinLength
			f.Constraints.MinLength = &n
		}
		if f.Constraints.MaxLength != nil {
			n := *f.Constraints.MaxLength
			f.Constraints.MaxLength = &n
		}
		out.Fields[i] = f
	}
	for _, k := range s.UniqueKeys {
		out.UniqueKeys = append(out.UniqueKeys, slices.Clone(k))
	}
	for _, fk := range s.ForeignKeys {
		out.ForeignKeys = append(out.ForeignKeys, ForeignKey{
			Fields: slices.Clone(fk.Fields),
			Reference: Reference{
				Resource: fk.Reference.Resource,
				Fields:   slices.Clone(fk.Reference.Fields),
			},
		})
	}
	return out
}
