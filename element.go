package dsl

import "fmt"

// ElementKind identifies which shape of value an Element or ElementType
// holds.
type ElementKind int

// The four element kinds the trace format supports.
const (
	KindNum ElementKind = iota
	KindManyNum
	KindStr
	KindManyStr
)

func (k ElementKind) String() string {
	switch k {
	case KindNum:
		return "num"
	case KindManyNum:
		return "many_num"
	case KindStr:
		return "str"
	case KindManyStr:
		return "many_str"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// ElementType describes the shape a memory slot's data must have: a single
// number or string, or a fixed-length vector of either. The vector length
// (n) is part of the type, since it determines how many machine stack slots
// the value occupies.
type ElementType struct {
	kind ElementKind
	n    int
}

// Num returns the type of a single number.
func Num() ElementType { return ElementType{kind: KindNum} }

// ManyNum returns the type of a vector of n numbers.
func ManyNum(n int) ElementType { return ElementType{kind: KindManyNum, n: n} }

// Str returns the type of a single string.
func Str() ElementType { return ElementType{kind: KindStr} }

// ManyStr returns the type of a vector of n strings.
func ManyStr(n int) ElementType { return ElementType{kind: KindManyStr, n: n} }

// Kind reports the element kind of the type.
func (et ElementType) Kind() ElementKind { return et.kind }

// Width reports how many machine stack slots a value of this type occupies.
func (et ElementType) Width() int {
	switch et.kind {
	case KindManyNum, KindManyStr:
		if et.n < 1 {
			return 1
		}
		return et.n
	default:
		return 1
	}
}

func (et ElementType) String() string {
	switch et.kind {
	case KindManyNum, KindManyStr:
		return fmt.Sprintf("%v(%d)", et.kind, et.n)
	default:
		return et.kind.String()
	}
}

// Element is a concrete value carried by a memory entry: exactly one of a
// number, a string, or a vector of either.
type Element struct {
	kind    ElementKind
	num     int
	str     string
	manyNum []int
	manyStr []string
}

// NewNum wraps a single number as an Element.
func NewNum(v int) Element { return Element{kind: KindNum, num: v} }

// NewManyNum wraps a vector of numbers as an Element.
func NewManyNum(vs []int) Element {
	cp := make([]int, len(vs))
	copy(cp, vs)
	return Element{kind: KindManyNum, manyNum: cp}
}

// NewStr wraps a single string as an Element.
func NewStr(v string) Element { return Element{kind: KindStr, str: v} }

// NewManyStr wraps a vector of strings as an Element.
func NewManyStr(vs []string) Element {
	cp := make([]string, len(vs))
	copy(cp, vs)
	return Element{kind: KindManyStr, manyStr: cp}
}

// Type returns the ElementType describing this value's shape.
func (el Element) Type() ElementType {
	switch el.kind {
	case KindManyNum:
		return ManyNum(len(el.manyNum))
	case KindManyStr:
		return ManyStr(len(el.manyStr))
	case KindStr:
		return Str()
	default:
		return Num()
	}
}

// Width reports how many machine stack slots this value occupies.
func (el Element) Width() int { return el.Type().Width() }

// MatchesType reports whether el is a valid instance of et: same kind, and
// for vector kinds, the same length.
func (el Element) MatchesType(et ElementType) bool {
	if el.kind != et.kind {
		return false
	}
	switch et.kind {
	case KindManyNum, KindManyStr:
		return el.Type().n == et.n
	default:
		return true
	}
}

// Num returns the wrapped number, if el holds one.
func (el Element) Num() (int, bool) {
	if el.kind != KindNum {
		return 0, false
	}
	return el.num, true
}

// ManyNum returns the wrapped number vector, if el holds one.
func (el Element) ManyNum() ([]int, bool) {
	if el.kind != KindManyNum {
		return nil, false
	}
	return el.manyNum, true
}

// Str returns the wrapped string, if el holds one.
func (el Element) Str() (string, bool) {
	if el.kind != KindStr {
		return "", false
	}
	return el.str, true
}

// ManyStr returns the wrapped string vector, if el holds one.
func (el Element) ManyStr() ([]string, bool) {
	if el.kind != KindManyStr {
		return nil, false
	}
	return el.manyStr, true
}

func (el Element) String() string {
	switch el.kind {
	case KindManyNum:
		return fmt.Sprintf("%v", el.manyNum)
	case KindManyStr:
		return fmt.Sprintf("%v", el.manyStr)
	case KindStr:
		return el.str
	default:
		return fmt.Sprintf("%d", el.num)
	}
}
