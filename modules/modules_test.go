package modules

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karamel/object"
)

// callMethod drives a class method directly at the Go level with a
// hand-built parameter view, receiver in the source slot. The same methods
// are exercised end to end, through source text and the VM's
// OP_CALL_METHOD dispatch, in the vm and interpreter tests.
func callMethod(t *testing.T, class object.Class, heap *object.Heap, source object.VmObject, name string, args ...object.VmObject) (object.VmObject, error) {
	t.Helper()
	method, ok := class.Method(name)
	require.True(t, ok, "method %q missing", name)
	parameter := object.NewMethodParameter(args, source, heap, nil, nil)
	return method(parameter)
}

func newListFixture(heap *object.Heap, items ...object.VmObject) object.VmObject {
	return heap.AllocList(items)
}

func TestListAddThenPop(t *testing.T) {
	heap := object.NewHeap()
	class := NewListClass()
	list := newListFixture(heap, heap.AllocText("merhaba"))

	// add returns the previous length
	value := object.ConvertNumber(8.0)
	result, err := callMethod(t, class, heap, list, "ekle", value)
	require.NoError(t, err)
	assert.Equal(t, object.ConvertNumber(1.0), result)

	// pop returns the added value and restores the length
	popped, err := callMethod(t, class, heap, list, "pop")
	require.NoError(t, err)
	assert.Equal(t, value, popped)
	assert.Len(t, list.Deref(heap).List, 1)
}

func TestListLength(t *testing.T) {
	heap := object.NewHeap()
	class := NewListClass()

	tests := []struct {
		items    []object.VmObject
		expected float64
	}{
		{[]object.VmObject{heap.AllocText("")}, 1.0},
		{[]object.VmObject{}, 0.0},
		{[]object.VmObject{heap.AllocText(""), object.EmptyObject, object.ConvertNumber(123), object.TrueObject}, 4.0},
	}
	for _, tt := range tests {
		list := newListFixture(heap, tt.items...)
		result, err := callMethod(t, class, heap, list, "uzunluk")
		require.NoError(t, err)
		assert.Equal(t, object.ConvertNumber(tt.expected), result)
	}
}

func TestListSetGet(t *testing.T) {
	heap := object.NewHeap()
	class := NewListClass()
	list := newListFixture(heap, object.ConvertNumber(1.0), object.ConvertNumber(2.0))

	result, err := callMethod(t, class, heap, list, "güncelle", object.ConvertNumber(1.0), heap.AllocText("iki"))
	require.NoError(t, err)
	assert.Equal(t, object.TrueObject, result)

	got, err := callMethod(t, class, heap, list, "getir", object.ConvertNumber(1.0))
	require.NoError(t, err)
	assert.Equal(t, "iki", got.Deref(heap).Text)

	// the ascii alias drives the same method
	result, err = callMethod(t, class, heap, list, "guncelle", object.ConvertNumber(0.0), heap.AllocText("bir"))
	require.NoError(t, err)
	assert.Equal(t, object.TrueObject, result)
}

func TestListSetOnePastEnd(t *testing.T) {
	heap := object.NewHeap()
	class := NewListClass()
	list := newListFixture(heap, object.ConvertNumber(1.0))

	// position <= length: one past the end appends
	result, err := callMethod(t, class, heap, list, "güncelle", object.ConvertNumber(1.0), object.ConvertNumber(9.0))
	require.NoError(t, err)
	assert.Equal(t, object.TrueObject, result)
	assert.Len(t, list.Deref(heap).List, 2)

	// two past the end misses
	result, err = callMethod(t, class, heap, list, "güncelle", object.ConvertNumber(5.0), object.ConvertNumber(9.0))
	require.NoError(t, err)
	assert.Equal(t, object.FalseObject, result)
	assert.Len(t, list.Deref(heap).List, 2)
}

func TestListInsert(t *testing.T) {
	heap := object.NewHeap()
	class := NewListClass()
	list := newListFixture(heap)

	_, err := callMethod(t, class, heap, list, "ekle", heap.AllocText("dünya"))
	require.NoError(t, err)

	result, err := callMethod(t, class, heap, list, "arayaekle", object.ConvertNumber(0.0), heap.AllocText("merhaba"))
	require.NoError(t, err)
	assert.Equal(t, object.TrueObject, result)

	items := list.Deref(heap).List
	require.Len(t, items, 2)
	assert.Equal(t, "merhaba", items[0].Deref(heap).Text)
	assert.Equal(t, "dünya", items[1].Deref(heap).Text)

	// insert past the end misses
	result, err = callMethod(t, class, heap, list, "arayaekle", object.ConvertNumber(9.0), heap.AllocText("hiç"))
	require.NoError(t, err)
	assert.Equal(t, object.FalseObject, result)
}

func TestListRemoveAndClear(t *testing.T) {
	heap := object.NewHeap()
	class := NewListClass()
	list := newListFixture(heap, object.ConvertNumber(1.0), object.ConvertNumber(2.0), object.ConvertNumber(3.0))

	removed, err := callMethod(t, class, heap, list, "sil", object.ConvertNumber(1.0))
	require.NoError(t, err)
	assert.Equal(t, object.ConvertNumber(2.0), removed)
	assert.Len(t, list.Deref(heap).List, 2)

	missing, err := callMethod(t, class, heap, list, "sil", object.ConvertNumber(9.0))
	require.NoError(t, err)
	assert.Equal(t, object.FalseObject, missing)

	_, err = callMethod(t, class, heap, list, "temizle")
	require.NoError(t, err)
	assert.Len(t, list.Deref(heap).List, 0)
}

func TestListArityErrorDoesNotMutate(t *testing.T) {
	heap := object.NewHeap()
	class := NewListClass()
	list := newListFixture(heap, object.ConvertNumber(1.0))

	_, err := callMethod(t, class, heap, list, "ekle", object.ConvertNumber(1.0), object.ConvertNumber(2.0))
	require.Error(t, err)
	assert.Len(t, list.Deref(heap).List, 1, "a failed call must not mutate the receiver")

	_, err = callMethod(t, class, heap, list, "getir")
	require.Error(t, err)
}

func TestListGetterSetter(t *testing.T) {
	heap := object.NewHeap()
	class := NewListClass()
	list := newListFixture(heap, object.ConvertNumber(1.0))

	// in range
	value, err := class.Getter(heap, list, object.ConvertNumber(0.0))
	require.NoError(t, err)
	assert.Equal(t, object.ConvertNumber(1.0), value)

	// out-of-bounds reads answer empty; negative is out of bounds
	value, err = class.Getter(heap, list, object.ConvertNumber(5.0))
	require.NoError(t, err)
	assert.Equal(t, object.EmptyObject, value)
	value, err = class.Getter(heap, list, object.ConvertNumber(-1.0))
	require.NoError(t, err)
	assert.Equal(t, object.EmptyObject, value)

	// out-of-bounds writes report false and change nothing
	result, err := class.Setter(heap, list, object.ConvertNumber(7.0), object.ConvertNumber(9.0))
	require.NoError(t, err)
	assert.Equal(t, object.FalseObject, result)
	assert.Len(t, list.Deref(heap).List, 1)

	// after set, get reads the value back
	result, err = class.Setter(heap, list, object.ConvertNumber(0.0), object.ConvertNumber(42.0))
	require.NoError(t, err)
	assert.Equal(t, object.TrueObject, result)
	value, err = class.Getter(heap, list, object.ConvertNumber(0.0))
	require.NoError(t, err)
	assert.Equal(t, object.ConvertNumber(42.0), value)
}

func TestDictClass(t *testing.T) {
	heap := object.NewHeap()
	class := NewDictClass()
	dict := heap.AllocDict(map[string]object.VmObject{})

	result, err := class.Setter(heap, dict, heap.AllocText("bir"), object.ConvertNumber(1.0))
	require.NoError(t, err)
	assert.Equal(t, object.TrueObject, result)

	value, err := class.Getter(heap, dict, heap.AllocText("bir"))
	require.NoError(t, err)
	assert.Equal(t, object.ConvertNumber(1.0), value)

	value, err = class.Getter(heap, dict, heap.AllocText("kayıp"))
	require.NoError(t, err)
	assert.Equal(t, object.EmptyObject, value)

	// non-text keys are a type error
	_, err = class.Getter(heap, dict, object.ConvertNumber(1.0))
	require.Error(t, err)

	length, err := callMethod(t, class, heap, dict, "uzunluk")
	require.NoError(t, err)
	assert.Equal(t, object.ConvertNumber(1.0), length)

	removed, err := callMethod(t, class, heap, dict, "sil", heap.AllocText("bir"))
	require.NoError(t, err)
	assert.Equal(t, object.ConvertNumber(1.0), removed)

	missing, err := callMethod(t, class, heap, dict, "sil", heap.AllocText("bir"))
	require.NoError(t, err)
	assert.Equal(t, object.FalseObject, missing)
}

func TestDictKeys(t *testing.T) {
	heap := object.NewHeap()
	class := NewDictClass()
	dict := heap.AllocDict(map[string]object.VmObject{
		"bir": object.ConvertNumber(1.0),
		"iki": object.ConvertNumber(2.0),
	})

	keys, err := callMethod(t, class, heap, dict, "anahtarlar")
	require.NoError(t, err)

	names := []string{}
	for _, key := range keys.Deref(heap).List {
		names = append(names, key.Deref(heap).Text)
	}
	assert.ElementsMatch(t, []string{"bir", "iki"}, names)
}

func TestNumModuleParse(t *testing.T) {
	heap := object.NewHeap()
	module := NewNumModule()
	parse, ok := module.Method("oku")
	require.True(t, ok)

	// a number passes through untouched
	result, err := parse(object.NewFunctionParameter([]object.VmObject{object.ConvertNumber(5.5)}, heap, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, object.ConvertNumber(5.5), result)

	// a text parses
	result, err = parse(object.NewFunctionParameter([]object.VmObject{heap.AllocText("1.25")}, heap, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, object.ConvertNumber(1.25), result)

	// an unparsable text errors
	_, err = parse(object.NewFunctionParameter([]object.VmObject{heap.AllocText("erhan")}, heap, nil, nil))
	require.Error(t, err)

	// other kinds yield empty
	result, err = parse(object.NewFunctionParameter([]object.VmObject{object.TrueObject}, heap, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, object.EmptyObject, result)

	// wrong arity errors
	_, err = parse(object.NewFunctionParameter([]object.VmObject{object.ConvertNumber(1), object.ConvertNumber(2)}, heap, nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "More than 1 argument passed")
}

func TestDebugAssert(t *testing.T) {
	heap := object.NewHeap()
	module := NewDebugModule()
	assertCall, ok := module.Method("doğrula")
	require.True(t, ok)

	// one argument: truthiness
	_, err := assertCall(object.NewFunctionParameter([]object.VmObject{object.TrueObject}, heap, nil, nil))
	require.NoError(t, err)
	_, err = assertCall(object.NewFunctionParameter([]object.VmObject{object.FalseObject}, heap, nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Assert failed")

	// two arguments: structural equality
	left := heap.AllocText("erhan barış")
	right := heap.AllocText("erhan barış")
	_, err = assertCall(object.NewFunctionParameter([]object.VmObject{left, right}, heap, nil, nil))
	require.NoError(t, err)

	_, err = assertCall(object.NewFunctionParameter([]object.VmObject{left, object.ConvertNumber(1)}, heap, nil, nil))
	require.Error(t, err)

	// zero arguments fail the assert
	_, err = assertCall(object.NewFunctionParameter([]object.VmObject{}, heap, nil, nil))
	require.Error(t, err)
}

func TestIoModule(t *testing.T) {
	heap := object.NewHeap()
	module := NewIoModule()
	writeLine, ok := module.Method("satıryaz")
	require.True(t, ok)

	var stdout bytes.Buffer
	args := []object.VmObject{heap.AllocText("merhaba"), object.ConvertNumber(123)}
	_, err := writeLine(object.NewFunctionParameter(args, heap, &stdout, nil))
	require.NoError(t, err)
	assert.Equal(t, "merhaba 123\n", stdout.String())
}

func TestRegistryResolve(t *testing.T) {
	registry := DefaultRegistry()

	_, err := registry.Resolve([]string{"gç", "satıryaz"})
	require.NoError(t, err)

	_, err = registry.Resolve([]string{"bilinmeyen", "fonksiyon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Module not found")

	_, err = registry.Resolve([]string{"gç", "bilinmeyen"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Function not found")

	class, ok := registry.Class(object.KindList)
	require.True(t, ok)
	assert.Equal(t, "liste", class.Name())
	class, ok = registry.Class(object.KindDict)
	require.True(t, ok)
	assert.Equal(t, "sözlük", class.Name())
}
