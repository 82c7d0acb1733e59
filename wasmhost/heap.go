package wasmhost

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"golang.org/x/text/encoding/unicode"
)

// headerSize is the size of the AssemblyScript object header:
// mmInfo, gcInfo, gcInfo2, rtId and rtSize, one u32 each
const headerSize = 20

var (
	errNoMemory    = errors.New("module has no memory")
	errNullPointer = errors.New("null pointer dereference")
	errNoAllocator = errors.New("module does not export `allocate`")
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// heap reads and writes AssemblyScript objects in the linear memory of one
// guest instance
type heap struct {
	guest    api.Module
	allocate api.Function
	idOfType api.Function
	rtIDs    map[typeIndex]uint32
}

func newHeap(guest api.Module) *heap {
	return &heap{
		guest:    guest,
		allocate: guest.ExportedFunction("allocate"),
		idOfType: guest.ExportedFunction("id_of_type"),
		rtIDs:    make(map[typeIndex]uint32),
	}
}

func (h *heap) memory() (api.Memory, error) {
	mem := h.guest.Memory()
	if mem == nil {
		return nil, errNoMemory
	}
	return mem, nil
}

// read copies n bytes at ptr
func (h *heap) read(ptr, n uint32) ([]byte, error) {
	mem, err := h.memory()
	if err != nil {
		return nil, err
	}
	b, ok := mem.Read(ptr, n)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", ptr, n)
	}
	return append([]byte(nil), b...), nil
}

func (h *heap) u32(ptr uint32) (uint32, error) {
	mem, err := h.memory()
	if err != nil {
		return 0, err
	}
	v, ok := mem.ReadUint32Le(ptr)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", ptr)
	}
	return v, nil
}

func (h *heap) u64(ptr uint32) (uint64, error) {
	mem, err := h.memory()
	if err != nil {
		return 0, err
	}
	v, ok := mem.ReadUint64Le(ptr)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", ptr)
	}
	return v, nil
}

func (h *heap) write(ptr uint32, b []byte) error {
	mem, err := h.memory()
	if err != nil {
		return err
	}
	if !mem.Write(ptr, b) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", ptr, len(b))
	}
	return nil
}

// fields reads n consecutive u32 fields of the object at ptr
func (h *heap) fields(ptr uint32, n int) ([]uint32, error) {
	if ptr == 0 {
		return nil, errNullPointer
	}
	b, err := h.read(ptr, uint32(4*n))
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out, nil
}

// rtSize reads the payload size from the header of the object at ptr
func (h *heap) rtSize(ptr uint32) (uint32, error) {
	if ptr < 4 {
		return 0, errNullPointer
	}
	return h.u32(ptr - 4)
}

func (h *heap) readString(ptr uint32) (string, error) {
	n, err := h.rtSize(ptr)
	if err != nil {
		return "", err
	}
	b, err := h.read(ptr, n)
	if err != nil {
		return "", err
	}
	s, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("invalid UTF-16 string at %d: %w", ptr, err)
	}
	return string(s), nil
}

func (h *heap) readArrayBuffer(ptr uint32) ([]byte, error) {
	n, err := h.rtSize(ptr)
	if err != nil {
		return nil, err
	}
	return h.read(ptr, n)
}

// readTypedArray reads the bytes viewed by a {buffer, dataStart, byteLength}
// typed array
func (h *heap) readTypedArray(ptr uint32) ([]byte, error) {
	f, err := h.fields(ptr, 3)
	if err != nil {
		return nil, err
	}
	return h.read(f[1], f[2])
}

// readArray reads the element pointers of a {buffer, dataStart, byteLength,
// length} array of references
func (h *heap) readArray(ptr uint32) ([]uint32, error) {
	f, err := h.fields(ptr, 4)
	if err != nil {
		return nil, err
	}
	b, err := h.read(f[1], 4*f[3])
	if err != nil {
		return nil, err
	}
	out := make([]uint32, f[3])
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out, nil
}

// readEnum reads the {kind, padding, payload} layout of the value classes
func (h *heap) readEnum(ptr uint32) (kind uint32, payload uint64, err error) {
	if ptr == 0 {
		return 0, 0, errNullPointer
	}
	if kind, err = h.u32(ptr); err != nil {
		return 0, 0, err
	}
	payload, err = h.u64(ptr + 8)
	return kind, payload, err
}

func (h *heap) readStrings(ptr uint32) ([]string, error) {
	ptrs, err := h.readArray(ptr)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ptrs))
	for i, p := range ptrs {
		if out[i], err = h.readString(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (h *heap) typeID(ctx context.Context, idx typeIndex) (uint32, error) {
	if id, ok := h.rtIDs[idx]; ok {
		return id, nil
	}
	if h.idOfType == nil {
		return 0, nil
	}
	res, err := h.idOfType.Call(ctx, uint64(idx))
	if err != nil {
		return 0, fmt.Errorf("id_of_type(%d): %w", idx, err)
	}
	id := api.DecodeU32(res[0])
	h.rtIDs[idx] = id
	return id, nil
}

// alloc allocates an object of class idx holding content and returns the
// pointer past its header. Blocks are padded to 16 bytes.
func (h *heap) alloc(ctx context.Context, idx typeIndex, content []byte) (uint32, error) {
	if h.allocate == nil {
		return 0, errNoAllocator
	}
	rtID, err := h.typeID(ctx, idx)
	if err != nil {
		return 0, err
	}

	padding := (16 - (headerSize+len(content))%16) % 16
	full := len(content) + padding

	res, err := h.allocate.Call(ctx, uint64(headerSize+full))
	if err != nil {
		return 0, fmt.Errorf("allocate(%d): %w", headerSize+full, err)
	}
	ptr := api.DecodeU32(res[0])

	block := make([]byte, headerSize+len(content))
	binary.LittleEndian.PutUint32(block[0:], uint32(full))
	binary.LittleEndian.PutUint32(block[12:], rtID)
	binary.LittleEndian.PutUint32(block[16:], uint32(len(content)))
	copy(block[headerSize:], content)

	if err := h.write(ptr, block); err != nil {
		return 0, err
	}
	return ptr + headerSize, nil
}

func (h *heap) writeString(ctx context.Context, s string) (uint32, error) {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return 0, fmt.Errorf("encode string: %w", err)
	}
	return h.alloc(ctx, idString, b)
}

func (h *heap) writeArrayBuffer(ctx context.Context, b []byte) (uint32, error) {
	return h.alloc(ctx, idArrayBuffer, b)
}

func (h *heap) writeTypedArray(ctx context.Context, idx typeIndex, b []byte) (uint32, error) {
	buf, err := h.writeArrayBuffer(ctx, b)
	if err != nil {
		return 0, err
	}
	return h.alloc(ctx, idx, u32s(buf, buf, uint32(len(b))))
}

func (h *heap) writeBytes(ctx context.Context, b []byte) (uint32, error) {
	return h.writeTypedArray(ctx, idUint8Array, b)
}

func (h *heap) writeArray(ctx context.Context, idx typeIndex, ptrs []uint32) (uint32, error) {
	buf, err := h.writeArrayBuffer(ctx, u32s(ptrs...))
	if err != nil {
		return 0, err
	}
	return h.alloc(ctx, idx, u32s(buf, buf, uint32(4*len(ptrs)), uint32(len(ptrs))))
}

func (h *heap) writeEnum(ctx context.Context, idx typeIndex, kind uint32, payload uint64) (uint32, error) {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint32(b[0:], kind)
	binary.LittleEndian.PutUint64(b[8:], payload)
	return h.alloc(ctx, idx, b)
}

func (h *heap) writeStrings(ctx context.Context, ss []string) (uint32, error) {
	ptrs := make([]uint32, len(ss))
	for i, s := range ss {
		p, err := h.writeString(ctx, s)
		if err != nil {
			return 0, err
		}
		ptrs[i] = p
	}
	return h.writeArray(ctx, idArrayString, ptrs)
}

func u32s(vs ...uint32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return b
}
