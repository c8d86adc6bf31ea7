package dsl

// DataTypeMetadata describes a named data type: the element shape it
// requires, and whether values of it may only ever be passed by reference
// (a `&`-prefixed function input), never copied onto the stack by value.
type DataTypeMetadata struct {
	ElementType ElementType
	RefOnly     bool
}

type dataTypeRegistry struct {
	types map[string]DataTypeMetadata
}

func newDataTypeRegistry() *dataTypeRegistry {
	return &dataTypeRegistry{types: make(map[string]DataTypeMetadata)}
}

func (r *dataTypeRegistry) add(name string, md DataTypeMetadata) {
	r.types[name] = md
}

func (r *dataTypeRegistry) lookup(name string) (DataTypeMetadata, error) {
	md, ok := r.types[name]
	if !ok {
		return DataTypeMetadata{}, UnknownDataTypeError{Name: name}
	}
	return md, nil
}

// AddDataType registers a named data type with the given element shape.
func (d *DSL) AddDataType(name string, et ElementType) {
	d.dataTypes.add(name, DataTypeMetadata{ElementType: et})
}

// AddRefOnlyDataType registers a named data type that may only be bound to
// `&`-prefixed (reference) function inputs. The lowering driver itself does
// not consult this flag; it is enforced only when StrictReferences is set on
// the DSL (see WithStrictReferences).
func (d *DSL) AddRefOnlyDataType(name string, et ElementType) {
	d.dataTypes.add(name, DataTypeMetadata{ElementType: et, RefOnly: true})
}
