package wasmhost

// Hand-assembled wasm modules used by the tests

// section ids
const (
	secType     = 0x01
	secImport   = 0x02
	secFunction = 0x03
	secTable    = 0x04
	secMemory   = 0x05
	secGlobal   = 0x06
	secExport   = 0x07
	secElem     = 0x09
	secCode     = 0x0a
	secData     = 0x0b
)

func wasmHeader() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

func vec(items ...[]byte) []byte {
	b := appendU32(nil, uint32(len(items)))
	for _, it := range items {
		b = append(b, it...)
	}
	return b
}

func export(name string, kind, index byte) []byte {
	return append(appendName(nil, name), kind, index)
}

func importFunc(module, name string, typeIdx byte) []byte {
	b := appendName(nil, module)
	b = appendName(b, name)
	return append(b, 0x00, typeIdx)
}

func body(code ...byte) []byte {
	b := append([]byte{0x00}, code...)
	return append(appendU32(nil, uint32(len(b))), b...)
}

// heapModule exports a memory, a bump allocator starting at 1024 and an
// id_of_type answering idx+100
func heapModule() []byte {
	b := wasmHeader()
	b = appendSection(b, secType, vec([]byte{0x60, 0x01, 0x7f, 0x01, 0x7f}))
	b = appendSection(b, secFunction, vec([]byte{0x00}, []byte{0x00}))
	b = appendSection(b, secMemory, vec([]byte{0x00, 0x01}))
	b = appendSection(b, secGlobal, vec([]byte{0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b}))
	b = appendSection(b, secExport, vec(
		export("memory", 0x02, 0),
		export("allocate", 0x00, 0),
		export("id_of_type", 0x00, 1),
	))
	b = appendSection(b, secCode, vec(
		// global.get 0; global.get 0; local.get 0; i32.add; global.set 0
		body(0x23, 0x00, 0x23, 0x00, 0x20, 0x00, 0x6a, 0x24, 0x00, 0x0b),
		// local.get 0; i32.const 100; i32.add
		body(0x20, 0x00, 0x41, 0xe4, 0x00, 0x6a, 0x0b),
	))
	return b
}

// Table layout of testModule
const (
	fixturePassing = iota
	fixtureFailing
	fixtureMystery
	fixtureAbort
)

// testModule registers the test "ok" at table index 0 and the test "boom",
// expected to fail, at table index 1. Index 2 calls the unknown import
// env.mystery and index 3 aborts with the message "ok" at line 7, column 9.
func testModule() []byte {
	b := wasmHeader()
	b = appendSection(b, secType, vec(
		[]byte{0x60, 0x03, 0x7f, 0x7f, 0x7f, 0x00},
		[]byte{0x60, 0x00, 0x00},
		[]byte{0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x00},
	))
	b = appendSection(b, secImport, vec(
		importFunc("index", "_registerTest", 0),
		importFunc("env", "mystery", 1),
		importFunc("env", "abort", 2),
	))
	// _start, passing, failing, callsMystery, callsAbort
	b = appendSection(b, secFunction, vec([]byte{1}, []byte{1}, []byte{1}, []byte{1}, []byte{1}))
	b = appendSection(b, secTable, vec([]byte{0x70, 0x00, 0x04}))
	b = appendSection(b, secMemory, vec([]byte{0x00, 0x01}))
	b = appendSection(b, secExport, vec(
		export("memory", 0x02, 0),
		export("table", 0x01, 0),
		export("_start", 0x00, 3),
	))
	b = appendSection(b, secElem, vec([]byte{0x00, 0x41, 0x00, 0x0b, 0x04, 4, 5, 6, 7}))
	b = appendSection(b, secCode, vec(
		body(0x41, 0x10, 0x41, 0x00, 0x41, 0x00, 0x10, 0x00,
			0x41, 0x20, 0x41, 0x01, 0x41, 0x01, 0x10, 0x00, 0x0b),
		body(0x0b),
		body(0x00, 0x0b),
		body(0x10, 0x01, 0x0b),
		body(0x41, 0x10, 0x41, 0x00, 0x41, 0x07, 0x41, 0x09, 0x10, 0x02, 0x0b),
	))

	// "ok" at 16 and "boom" at 32, each preceded by its byte length
	data := []byte{
		0x04, 0x00, 0x00, 0x00, 'o', 0x00, 'k', 0x00,
		0, 0, 0, 0, 0, 0, 0, 0,
		0x08, 0x00, 0x00, 0x00, 'b', 0x00, 'o', 0x00, 'o', 0x00, 'm', 0x00,
	}
	seg := []byte{0x00, 0x41, 0x0c, 0x0b}
	seg = appendU32(seg, uint32(len(data)))
	seg = append(seg, data...)
	b = appendSection(b, secData, vec(seg))
	return b
}
