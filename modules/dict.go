package modules

import (
	"karamel/object"
)

// DictClass is the dispatch table of the dictionary primitive. Keys are
// texts; a read under a missing key answers empty.
type DictClass struct {
	methods map[string]object.NativeCall
}

func NewDictClass() *DictClass {
	return &DictClass{
		methods: map[string]object.NativeCall{
			"getir":      dictGet,
			"güncelle":   dictSet,
			"guncelle":   dictSet,
			"ekle":       dictSet,
			"uzunluk":    dictLength,
			"temizle":    dictClear,
			"sil":        dictRemove,
			"anahtarlar": dictKeys,
		},
	}
}

func (c *DictClass) Name() string {
	return "sözlük"
}

func (c *DictClass) Method(name string) (object.NativeCall, bool) {
	method, ok := c.methods[name]
	return method, ok
}

func (c *DictClass) Getter(heap *object.Heap, source object.VmObject, index object.VmObject) (object.VmObject, error) {
	key, err := textKey(heap, index)
	if err != nil {
		return object.EmptyObject, err
	}
	dict := source.Deref(heap)
	if value, ok := dict.Dict[key]; ok {
		return value, nil
	}
	return object.EmptyObject, nil
}

func (c *DictClass) Setter(heap *object.Heap, source object.VmObject, index object.VmObject, item object.VmObject) (object.VmObject, error) {
	key, err := textKey(heap, index)
	if err != nil {
		return object.EmptyObject, err
	}
	dict := source.Deref(heap)
	dict.Dict[key] = item
	return object.TrueObject, nil
}

// textKey reads a dictionary key, which must be a text.
func textKey(heap *object.Heap, index object.VmObject) (string, error) {
	if index.Kind(heap) != object.KindText {
		return "", expectedParameterType("anahtar", "yazı")
	}
	return index.Deref(heap).Text, nil
}

func receiverDict(parameter object.FunctionParameter) (*object.Primitive, bool) {
	source, ok := parameter.Source()
	if !ok {
		return nil, false
	}
	primitive := source.Deref(parameter.Heap())
	if primitive.Kind != object.KindDict {
		return nil, false
	}
	return primitive, true
}

func dictGet(parameter object.FunctionParameter) (object.VmObject, error) {
	dict, ok := receiverDict(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	if parameter.Length() != 1 {
		return object.EmptyObject, nParameterExpected("getir", 1, parameter.Length())
	}

	key, err := textKey(parameter.Heap(), parameter.Arg(0))
	if err != nil {
		return object.EmptyObject, err
	}
	if value, ok := dict.Dict[key]; ok {
		return value, nil
	}
	return object.EmptyObject, nil
}

func dictSet(parameter object.FunctionParameter) (object.VmObject, error) {
	dict, ok := receiverDict(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	if parameter.Length() != 2 {
		return object.EmptyObject, nParameterExpected("güncelle", 2, parameter.Length())
	}

	key, err := textKey(parameter.Heap(), parameter.Arg(0))
	if err != nil {
		return object.EmptyObject, err
	}
	dict.Dict[key] = parameter.Arg(1)
	return object.TrueObject, nil
}

func dictLength(parameter object.FunctionParameter) (object.VmObject, error) {
	dict, ok := receiverDict(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	return object.ConvertNumber(float64(len(dict.Dict))), nil
}

func dictClear(parameter object.FunctionParameter) (object.VmObject, error) {
	dict, ok := receiverDict(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	dict.Dict = make(map[string]object.VmObject)
	return object.EmptyObject, nil
}

// dictRemove deletes the entry and returns its value, or false when the key
// was absent.
func dictRemove(parameter object.FunctionParameter) (object.VmObject, error) {
	dict, ok := receiverDict(parameter)
	if !ok {
		return object.EmptyObject, nil
	}
	if parameter.Length() != 1 {
		return object.EmptyObject, nParameterExpected("sil", 1, parameter.Length())
	}

	key, err := textKey(parameter.Heap(), parameter.Arg(0))
	if err != nil {
		return object.EmptyObject, err
	}
	value, ok := dict.Dict[key]
	if !ok {
		return object.FalseObject, nil
	}
	delete(dict.Dict, key)
	return value, nil
}

// dictKeys returns the keys as a fresh list of texts.
func dictKeys(parameter object.FunctionParameter) (object.VmObject, error) {
	dict, ok := receiverDict(parameter)
	if !ok {
		return object.EmptyObject, nil
	}

	keys := make([]object.VmObject, 0, len(dict.Dict))
	for key := range dict.Dict {
		keys = append(keys, parameter.Heap().AllocText(key))
	}
	return parameter.Heap().AllocList(keys), nil
}
