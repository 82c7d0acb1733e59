package wasmhost

// typeIndex is the graph-ts class index passed to the guest's id_of_type
// export, which answers with the AssemblyScript runtime id of the class
type typeIndex uint32

const (
	idString                             typeIndex = 0
	idArrayBuffer                        typeIndex = 1
	idUint8Array                         typeIndex = 6
	idBigDecimal                         typeIndex = 12
	idArrayEthereumValue                 typeIndex = 15
	idArrayStoreValue                    typeIndex = 16
	idArrayJSONValue                     typeIndex = 17
	idArrayString                        typeIndex = 18
	idArrayTypedMapEntryStringJSONValue  typeIndex = 20
	idArrayTypedMapEntryStringStoreValue typeIndex = 21
	idEthereumValue                      typeIndex = 30
	idStoreValue                         typeIndex = 31
	idJSONValue                          typeIndex = 32
	idTypedMapEntryStringStoreValue      typeIndex = 34
	idTypedMapEntryStringJSONValue       typeIndex = 35
	idTypedMapStringStoreValue           typeIndex = 36
	idTypedMapStringJSONValue            typeIndex = 37
	idArrayTypedMapStringStoreValue      typeIndex = 113

	// BigInt extends Uint8Array and shares its class
	idBigInt = idUint8Array
)

// Enum discriminants of the graph-ts value classes
const (
	storeString uint32 = iota
	storeInt
	storeBigDecimal
	storeBool
	storeArray
	storeNull
	storeBytes
	storeBigInt
	storeInt8
	storeTimestamp
)

const (
	ethAddress uint32 = iota
	ethFixedBytes
	ethBytes
	ethInt
	ethUint
	ethBool
	ethString
	ethFixedArray
	ethArray
	ethTuple
)

const (
	jsonNull uint32 = iota
	jsonBool
	jsonNumber
	jsonString
	jsonArray
	jsonObject
)
