package modules

import (
	"karamel/object"
)

// ListClass is the dispatch table of the list primitive: the named methods
// plus the operator getter/setter invoked by the indexer syntax.
//
// Writes (the setter, `güncelle`, `arayaekle`) accept `position <= length`:
// writing one past the end appends. Reads and `sil` accept only
// `position < length`. Negative positions are out of bounds, never "from the
// end".
type ListClass struct {
	methods map[string]object.NativeCall
}

func NewListClass() *ListClass {
	return &ListClass{
		methods: map[string]object.NativeCall{
			"getir":     listGet,
			"güncelle":  listSet,
			"guncelle":  listSet,
			"uzunluk":   listLength,
			"ekle":      listAdd,
			"temizle":   listClear,
			"arayaekle": listInsert,
			"pop":       listPop,
			"sil":       listRemove,
		},
	}
}

func (c *ListClass) Name() string {
	return "liste"
}

func (c *ListClass) Method(name string) (object.NativeCall, bool) {
	method, ok := c.methods[name]
	return method, ok
}

// Getter reads source[index]. Out-of-bounds and negative positions read as
// empty.
func (c *ListClass) Getter(heap *object.Heap, source object.VmObject, index object.VmObject) (object.VmObject, error) {
	if !index.IsNumber() {
		return object.EmptyObject, expectedParameterType("sıra", "sayı")
	}
	list := source.Deref(heap)
	position := int(index.Number())
	if index.Number() < 0 || position >= len(list.List) {
		return object.EmptyObject, nil
	}
	return list.List[position], nil
}

// Setter writes source[index] = item and reports whether the write landed.
// A write one past the end appends.
func (c *ListClass) Setter(heap *object.Heap, source object.VmObject, index object.VmObject, item object.VmObject) (object.VmObject, error) {
	if !index.IsNumber() {
		return object.EmptyObject, expectedParameterType("sıra", "sayı")
	}
	list := source.Deref(heap)
	if index.Number() < 0 {
		return object.FalseObject, nil
	}
	position := int(index.Number())
	switch {
	case position < len(list.List):
		list.List[position] = item
	case position == len(list.List):
		list.List = append(list.List, item)
	default:
		return object.FalseObject, nil
	}
	return object.TrueObject, nil
}

// receiverList pulls the list primitive out of the receiver slot. Builtins
// on a foreign receiver answer empty rather than failing.
func receiverList(parameter object.FunctionParameter) (*object.Primitive, bool) {
	source, ok := parameter.Source()
	if !ok {
		return nil, false
	}
	primitive := source.Deref(parameter.Heap())
	if primitive.Kind != object.KindList {
		return nil, false
	}
	return primitive, true
}

// positionArgument reads a numeric position parameter.
func positionArgument(parameter object.FunctionParameter, index int) (float64, error) {
	argument := parameter.Arg(index)
	if !argument.IsNumber() {
		return 0, expectedParameterType("sıra", "sayı")
	}
	return argument.Number(), nil
}

func listGet(parameter object.FunctionParameter) (object.VmObject, error) {
	list, ok := receiverList(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	if parameter.Length() != 1 {
		return object.EmptyObject, nParameterExpected("getir", 1, parameter.Length())
	}

	position, err := positionArgument(parameter, 0)
	if err != nil {
		return object.EmptyObject, err
	}
	if position < 0 || int(position) >= len(list.List) {
		return object.EmptyObject, nil
	}
	return list.List[int(position)], nil
}

func listSet(parameter object.FunctionParameter) (object.VmObject, error) {
	list, ok := receiverList(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	if parameter.Length() != 2 {
		return object.EmptyObject, nParameterExpected("güncelle", 2, parameter.Length())
	}

	position, err := positionArgument(parameter, 0)
	if err != nil {
		return object.EmptyObject, err
	}
	item := parameter.Arg(1)

	if position < 0 || position > float64(len(list.List)) {
		return object.FalseObject, nil
	}
	if int(position) == len(list.List) {
		list.List = append(list.List, item)
	} else {
		list.List[int(position)] = item
	}
	return object.TrueObject, nil
}

func listLength(parameter object.FunctionParameter) (object.VmObject, error) {
	list, ok := receiverList(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	return object.ConvertNumber(float64(len(list.List))), nil
}

// listAdd appends the item and returns the length before the append.
func listAdd(parameter object.FunctionParameter) (object.VmObject, error) {
	list, ok := receiverList(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	if parameter.Length() != 1 {
		return object.EmptyObject, nParameterExpected("ekle", 1, parameter.Length())
	}

	length := float64(len(list.List))
	list.List = append(list.List, parameter.Arg(0))
	return object.ConvertNumber(length), nil
}

func listClear(parameter object.FunctionParameter) (object.VmObject, error) {
	list, ok := receiverList(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	list.List = list.List[:0]
	return object.EmptyObject, nil
}

func listInsert(parameter object.FunctionParameter) (object.VmObject, error) {
	list, ok := receiverList(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	if parameter.Length() != 2 {
		return object.EmptyObject, nParameterExpected("arayaekle", 2, parameter.Length())
	}

	position, err := positionArgument(parameter, 0)
	if err != nil {
		return object.EmptyObject, err
	}
	item := parameter.Arg(1)

	if position < 0 || position > float64(len(list.List)) {
		return object.FalseObject, nil
	}
	index := int(position)
	list.List = append(list.List, object.EmptyObject)
	copy(list.List[index+1:], list.List[index:])
	list.List[index] = item
	return object.TrueObject, nil
}

func listPop(parameter object.FunctionParameter) (object.VmObject, error) {
	list, ok := receiverList(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	if len(list.List) == 0 {
		return object.EmptyObject, nil
	}
	item := list.List[len(list.List)-1]
	list.List = list.List[:len(list.List)-1]
	return item, nil
}

// listRemove drops the item at the position and returns it.
func listRemove(parameter object.FunctionParameter) (object.VmObject, error) {
	list, ok := receiverList(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	if parameter.Length() != 1 {
		return object.EmptyObject, nParameterExpected("sil", 1, parameter.Length())
	}

	position, err := positionArgument(parameter, 0)
	if err != nil {
		return object.EmptyObject, err
	}
	if position < 0 || int(position) >= len(list.List) {
		return object.FalseObject, nil
	}
	index := int(position)
	item := list.List[index]
	list.List = append(list.List[:index], list.List[index+1:]...)
	return item, nil
}
