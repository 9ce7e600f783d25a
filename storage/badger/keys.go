package badger

// Key layout. Every kss key lives under the "kss" namespace so the database
// can be shared with other data.
const (
	metaVersionKey = "kss:meta:version"
	storeKeyPrefix = "kss:store:"
	recordPrefix   = "kss:rec:"
	storeSeparator = "\x00"
)

// makeStoreKey generates the marker key recording that an object store exists.
func makeStoreKey(storeName string) []byte {
	return []byte(storeKeyPrefix + storeName)
}

// makeStorePrefix generates the prefix shared by every record of a store.
// Format: prefix:storeName\x00
func makeStorePrefix(storeName string) []byte {
	prefix := recordPrefix + storeName + storeSeparator
	return []byte(prefix)
}

// makeRecordKey generates the key for a record of a store.
// Format: prefix:storeName\x00key
func makeRecordKey(storeName, key string) []byte {
	prefix := makeStorePrefix(storeName)
	buf := make([]byte, len(prefix)+len(key))
	offset := copy(buf, prefix)
	copy(buf[offset:], key)
	return buf
}
