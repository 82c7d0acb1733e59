package wasmhost

// Exports of the trampoline module: invoke(idx i32) performs
// call_indirect (type [] -> []) idx, and size() returns the table size
const (
	trampolineInvoke = "invoke"
	trampolineSize   = "size"
)

// trampolineModule returns a wasm module importing the table exported by
// the instance named guest
func trampolineModule(guest string) []byte {
	var b []byte
	b = append(b, 0x00, 0x61, 0x73, 0x6d) // magic
	b = append(b, 0x01, 0x00, 0x00, 0x00) // version

	// type section: 0 = [] -> [], 1 = [i32] -> [], 2 = [] -> [i32]
	b = appendSection(b, 0x01, []byte{
		0x03,
		0x60, 0x00, 0x00,
		0x60, 0x01, 0x7f, 0x00,
		0x60, 0x00, 0x01, 0x7f,
	})

	// import section: guest.table, funcref, min 0
	var imp []byte
	imp = append(imp, 0x01)
	imp = appendName(imp, guest)
	imp = appendName(imp, "table")
	imp = append(imp, 0x01, 0x70, 0x00, 0x00)
	b = appendSection(b, 0x02, imp)

	// function section: invoke has type 1, size has type 2
	b = appendSection(b, 0x03, []byte{0x02, 0x01, 0x02})

	var exp []byte
	exp = append(exp, 0x02)
	exp = appendName(exp, trampolineInvoke)
	exp = append(exp, 0x00, 0x00)
	exp = appendName(exp, trampolineSize)
	exp = append(exp, 0x00, 0x01)
	b = appendSection(b, 0x07, exp)

	invoke := []byte{0x00, 0x20, 0x00, 0x11, 0x00, 0x00, 0x0b} // local.get 0; call_indirect 0 0; end
	size := []byte{0x00, 0xfc, 0x10, 0x00, 0x0b}                // table.size 0; end
	code := []byte{0x02}
	for _, body := range [][]byte{invoke, size} {
		code = appendU32(code, uint32(len(body)))
		code = append(code, body...)
	}
	b = appendSection(b, 0x0a, code)

	return b
}

func appendSection(b []byte, id byte, payload []byte) []byte {
	b = append(b, id)
	b = appendU32(b, uint32(len(payload)))
	return append(b, payload...)
}

func appendName(b []byte, name string) []byte {
	b = appendU32(b, uint32(len(name)))
	return append(b, name...)
}

// appendU32 appends v as unsigned LEB128
func appendU32(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b = append(b, c)
		if v == 0 {
			return b
		}
	}
}
